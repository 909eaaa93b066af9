package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/junekoh/mealmeet/internal/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailAlreadyExists   = errors.New("email already registered")
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenMismatch = errors.New("refresh token mismatch")
	ErrPostNotFound         = errors.New("post not found")
	ErrLocationNotFound     = errors.New("location not found")
	ErrRateLimited          = errors.New("too many attempts")
)

// DBTX lets the same repository code run on *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Storage interface {
	UserRepository
	RefreshTokenRepository
	PostRepository
}

// AuthStorage is the slice of Storage the session subsystem needs.
type AuthStorage interface {
	UserRepository
	RefreshTokenRepository
}

type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateNickname(ctx context.Context, id int64, nickname string) error
}

// RefreshTokenRepository keeps at most one live refresh token per user.
type RefreshTokenRepository interface {
	GetRefreshToken(ctx context.Context, userID int64) (*models.RefreshTokenRecord, error)
	// UpsertRefreshToken overwrites any prior record for the user (login path).
	UpsertRefreshToken(ctx context.Context, record models.RefreshTokenRecord) error
	// RotateRefreshToken replaces the stored token only if it still equals
	// presented. Zero rows updated means the record is absent or was already
	// rotated away, and surfaces as ErrRefreshTokenMismatch; a racing reissue
	// therefore loses instead of silently succeeding.
	RotateRefreshToken(ctx context.Context, userID int64, presented, next string) error
}

type PostRepository interface {
	CreatePostWithLocation(ctx context.Context, post models.Post, loc models.LocationRequest) (*models.PostDetail, error)
	GetPostByID(ctx context.Context, id int64) (*models.PostDetail, error)
	UpdatePostWithLocation(ctx context.Context, post models.Post, loc models.LocationRequest) (*models.PostDetail, error)
	// DeactivatePost soft-deletes the post and its location together.
	DeactivatePost(ctx context.Context, id int64) error
	ListPosts(ctx context.Context, page, size int) ([]models.PostDetail, error)
	SearchPosts(ctx context.Context, keyword string, page, size int) ([]models.PostDetail, error)
	// ListPostsNear returns active posts whose restaurant point lies within
	// radiusMeters of (lat, lng), closest first.
	ListPostsNear(ctx context.Context, lat, lng, radiusMeters float64) ([]models.PostDetail, error)
}

// LoginAttemptLimiter throttles login attempts per key (email, client IP).
type LoginAttemptLimiter interface {
	Allow(ctx context.Context, key string) error
}
