package postgres

import (
	"context"
	"fmt"

	"github.com/junekoh/mealmeet/internal/models"
	"github.com/junekoh/mealmeet/internal/storage"
)

type LocationRepository struct {
	db storage.DBTX
}

func NewLocationRepository(db storage.DBTX) *LocationRepository {
	return &LocationRepository{db: db}
}

func (r *LocationRepository) InsertLocation(ctx context.Context, postID int64, loc models.LocationRequest) error {
	query := `INSERT INTO locations (post_id, latitude, longitude, is_active)
		VALUES ($1, $2, $3, true)`
	if _, err := r.db.ExecContext(ctx, query, postID, loc.Latitude, loc.Longitude); err != nil {
		return fmt.Errorf("failed to insert location: %w", err)
	}
	return nil
}

func (r *LocationRepository) UpdateLocationByPostID(ctx context.Context, postID int64, loc models.LocationRequest) error {
	query := `UPDATE locations SET latitude = $2, longitude = $3 WHERE post_id = $1`
	res, err := r.db.ExecContext(ctx, query, postID, loc.Latitude, loc.Longitude)
	if err != nil {
		return fmt.Errorf("failed to update location: %w", err)
	}
	return requireRow(res, storage.ErrLocationNotFound)
}

func (r *LocationRepository) MarkLocationInactiveByPostID(ctx context.Context, postID int64) error {
	query := `UPDATE locations SET is_active = false WHERE post_id = $1`
	res, err := r.db.ExecContext(ctx, query, postID)
	if err != nil {
		return fmt.Errorf("failed to deactivate location: %w", err)
	}
	return requireRow(res, storage.ErrLocationNotFound)
}
