package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/junekoh/mealmeet/internal/models"
)

// Storage bundles the repositories over one connection pool. Writes that
// touch both posts and locations run inside a transaction here; single-table
// operations live on the embedded repositories.
type Storage struct {
	db *sql.DB
	*UserRepository
	*RefreshTokenRepository
	*PostRepository
	*LocationRepository
}

func NewStorage(db *sql.DB) *Storage {
	return &Storage{
		db:                     db,
		UserRepository:         NewUserRepository(db),
		RefreshTokenRepository: NewRefreshTokenRepository(db),
		PostRepository:         NewPostRepository(db),
		LocationRepository:     NewLocationRepository(db),
	}
}

// CreatePostWithLocation inserts the post and its restaurant point in one
// transaction so a post can never exist without a location.
func (s *Storage) CreatePostWithLocation(ctx context.Context, post models.Post, loc models.LocationRequest) (*models.PostDetail, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	postRepoTx := NewPostRepository(tx)
	locationRepoTx := NewLocationRepository(tx)

	postID, err := postRepoTx.InsertPost(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("failed to insert post in tx: %w", err)
	}
	if err := locationRepoTx.InsertLocation(ctx, postID, loc); err != nil {
		return nil, fmt.Errorf("failed to insert location in tx: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return s.GetPostByID(ctx, postID)
}

func (s *Storage) UpdatePostWithLocation(ctx context.Context, post models.Post, loc models.LocationRequest) (*models.PostDetail, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	postRepoTx := NewPostRepository(tx)
	locationRepoTx := NewLocationRepository(tx)

	if err := postRepoTx.UpdatePost(ctx, post); err != nil {
		return nil, err
	}
	if err := locationRepoTx.UpdateLocationByPostID(ctx, post.ID, loc); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return s.GetPostByID(ctx, post.ID)
}

// DeactivatePost soft-deletes the post together with its location.
func (s *Storage) DeactivatePost(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	postRepoTx := NewPostRepository(tx)
	locationRepoTx := NewLocationRepository(tx)

	if err := postRepoTx.MarkPostInactive(ctx, id); err != nil {
		return err
	}
	if err := locationRepoTx.MarkLocationInactiveByPostID(ctx, id); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
