package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/junekoh/mealmeet/internal/models"
	"github.com/junekoh/mealmeet/internal/storage"
)

const postDetailColumns = `p.id, p.creator_id, p.title, p.order_at, p.recruitment,
	p.food_category, p.is_active, p.created_at, p.updated_at,
	u.name, l.latitude, l.longitude`

const postDetailFrom = `FROM posts p
	JOIN users u ON u.id = p.creator_id
	JOIN locations l ON l.post_id = p.id`

type PostRepository struct {
	db storage.DBTX
}

func NewPostRepository(db storage.DBTX) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) InsertPost(ctx context.Context, post models.Post) (int64, error) {
	query := `INSERT INTO posts (creator_id, title, order_at, recruitment, food_category, is_active)
		VALUES ($1, $2, $3, $4, $5, true) RETURNING id`
	var id int64
	err := r.db.QueryRowContext(
		ctx,
		query,
		post.CreatorID,
		post.Title,
		post.OrderAt,
		post.Recruitment,
		post.FoodCategory,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert post: %w", err)
	}
	return id, nil
}

func (r *PostRepository) UpdatePost(ctx context.Context, post models.Post) error {
	query := `UPDATE posts SET title = $2, order_at = $3, recruitment = $4,
		food_category = $5, updated_at = now() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, post.ID, post.Title, post.OrderAt, post.Recruitment, post.FoodCategory)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	return requireRow(res, storage.ErrPostNotFound)
}

func (r *PostRepository) MarkPostInactive(ctx context.Context, id int64) error {
	query := `UPDATE posts SET is_active = false, updated_at = now() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate post: %w", err)
	}
	return requireRow(res, storage.ErrPostNotFound)
}

func (r *PostRepository) GetPostByID(ctx context.Context, id int64) (*models.PostDetail, error) {
	query := `SELECT ` + postDetailColumns + ` ` + postDetailFrom + ` WHERE p.id = $1`
	var d models.PostDetail
	err := r.scanDetail(r.db.QueryRowContext(ctx, query, id), &d)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &d, nil
}

func (r *PostRepository) ListPosts(ctx context.Context, page, size int) ([]models.PostDetail, error) {
	query := `SELECT ` + postDetailColumns + ` ` + postDetailFrom + `
		WHERE p.is_active ORDER BY p.id DESC LIMIT $1 OFFSET $2`
	return r.queryDetails(ctx, query, size, page*size)
}

func (r *PostRepository) SearchPosts(ctx context.Context, keyword string, page, size int) ([]models.PostDetail, error) {
	query := `SELECT ` + postDetailColumns + ` ` + postDetailFrom + `
		WHERE p.is_active AND p.title ILIKE '%' || $1 || '%'
		ORDER BY p.id DESC LIMIT $2 OFFSET $3`
	return r.queryDetails(ctx, query, keyword, size, page*size)
}

// ListPostsNear filters by great-circle distance computed from the stored
// lat/lng pair, closest restaurant first.
func (r *PostRepository) ListPostsNear(ctx context.Context, lat, lng, radiusMeters float64) ([]models.PostDetail, error) {
	query := `SELECT ` + postDetailColumns + ` ` + postDetailFrom + `
		WHERE p.is_active AND l.is_active
		AND 6371000 * acos(least(1.0,
			cos(radians($1)) * cos(radians(l.latitude)) * cos(radians(l.longitude) - radians($2))
			+ sin(radians($1)) * sin(radians(l.latitude)))) <= $3
		ORDER BY 6371000 * acos(least(1.0,
			cos(radians($1)) * cos(radians(l.latitude)) * cos(radians(l.longitude) - radians($2))
			+ sin(radians($1)) * sin(radians(l.latitude))))`
	return r.queryDetails(ctx, query, lat, lng, radiusMeters)
}

func (r *PostRepository) queryDetails(ctx context.Context, query string, args ...any) ([]models.PostDetail, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	var details []models.PostDetail
	for rows.Next() {
		var d models.PostDetail
		if err := rows.Scan(
			&d.ID, &d.CreatorID, &d.Title, &d.OrderAt, &d.Recruitment,
			&d.FoodCategory, &d.IsActive, &d.CreatedAt, &d.UpdatedAt,
			&d.CreatorName, &d.Latitude, &d.Longitude,
		); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}
	return details, nil
}

func (r *PostRepository) scanDetail(row *sql.Row, d *models.PostDetail) error {
	return row.Scan(
		&d.ID, &d.CreatorID, &d.Title, &d.OrderAt, &d.Recruitment,
		&d.FoodCategory, &d.IsActive, &d.CreatedAt, &d.UpdatedAt,
		&d.CreatorName, &d.Latitude, &d.Longitude,
	)
}

func requireRow(res sql.Result, missing error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return missing
	}
	return nil
}
