package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/junekoh/mealmeet/internal/models"
	"github.com/junekoh/mealmeet/internal/storage"
)

type RefreshTokenRepository struct {
	db storage.DBTX
}

func NewRefreshTokenRepository(db storage.DBTX) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) GetRefreshToken(ctx context.Context, userID int64) (*models.RefreshTokenRecord, error) {
	var record models.RefreshTokenRecord
	query := `SELECT user_id, token, updated_at FROM refresh_tokens WHERE user_id = $1`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&record.UserID, &record.Token, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}
	return &record, nil
}

// UpsertRefreshToken overwrites the user's record in place. The primary key
// on user_id enforces the one-live-token-per-account invariant.
func (r *RefreshTokenRepository) UpsertRefreshToken(ctx context.Context, record models.RefreshTokenRecord) error {
	query := `INSERT INTO refresh_tokens (user_id, token, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET token = EXCLUDED.token, updated_at = now()`
	if _, err := r.db.ExecContext(ctx, query, record.UserID, record.Token); err != nil {
		return fmt.Errorf("failed to upsert refresh token: %w", err)
	}
	return nil
}

// RotateRefreshToken is a single conditional UPDATE so two racing reissues
// for the same user are serialized by the database row lock; the loser sees
// zero rows and gets ErrRefreshTokenMismatch.
func (r *RefreshTokenRepository) RotateRefreshToken(ctx context.Context, userID int64, presented, next string) error {
	query := `UPDATE refresh_tokens SET token = $3, updated_at = now()
		WHERE user_id = $1 AND token = $2`
	res, err := r.db.ExecContext(ctx, query, userID, presented, next)
	if err != nil {
		return fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrRefreshTokenMismatch
	}
	return nil
}
