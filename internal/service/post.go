package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/junekoh/mealmeet/internal/models"
	"github.com/junekoh/mealmeet/internal/storage"
)

var ErrPostEditNotAllowed = errors.New("post can only be modified by its creator")

type PostService struct {
	storage storage.PostRepository
	log     *zap.SugaredLogger
}

func NewPostService(st storage.PostRepository, log *zap.SugaredLogger) *PostService {
	return &PostService{storage: st, log: log}
}

func (s *PostService) CreatePost(ctx context.Context, identity *models.Identity, req models.PostCreateRequest) (*models.PostResponse, error) {
	detail, err := s.storage.CreatePostWithLocation(ctx, models.Post{
		CreatorID:    identity.UserID,
		Title:        req.Title,
		OrderAt:      req.OrderAt,
		Recruitment:  req.Recruitment,
		FoodCategory: req.FoodCategory,
	}, req.Location)
	if err != nil {
		return nil, err
	}

	s.log.Infow("post created", "postID", detail.ID, "creatorID", identity.UserID)
	resp := models.NewPostResponse(detail)
	return &resp, nil
}

func (s *PostService) UpdatePost(ctx context.Context, identity *models.Identity, req models.PostUpdateRequest) (*models.PostResponse, error) {
	if err := s.requireCreator(ctx, identity, req.PostID); err != nil {
		return nil, err
	}

	detail, err := s.storage.UpdatePostWithLocation(ctx, models.Post{
		ID:           req.PostID,
		Title:        req.Title,
		OrderAt:      req.OrderAt,
		Recruitment:  req.Recruitment,
		FoodCategory: req.FoodCategory,
	}, req.Location)
	if err != nil {
		return nil, err
	}

	resp := models.NewPostResponse(detail)
	return &resp, nil
}

// DeletePost soft-deletes: the post and its location are deactivated, not
// removed.
func (s *PostService) DeletePost(ctx context.Context, identity *models.Identity, postID int64) error {
	if err := s.requireCreator(ctx, identity, postID); err != nil {
		return err
	}
	return s.storage.DeactivatePost(ctx, postID)
}

func (s *PostService) GetPost(ctx context.Context, postID int64) (*models.PostResponse, error) {
	detail, err := s.storage.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	resp := models.NewPostResponse(detail)
	return &resp, nil
}

func (s *PostService) ListPosts(ctx context.Context, page, size int) ([]models.PostResponse, error) {
	details, err := s.storage.ListPosts(ctx, page, size)
	if err != nil {
		return nil, err
	}
	return mapPostResponses(details), nil
}

func (s *PostService) SearchPosts(ctx context.Context, keyword string, page, size int) ([]models.PostResponse, error) {
	details, err := s.storage.SearchPosts(ctx, keyword, page, size)
	if err != nil {
		return nil, err
	}
	return mapPostResponses(details), nil
}

func (s *PostService) ListPostsNear(ctx context.Context, lat, lng, radiusMeters float64) ([]models.PostResponse, error) {
	details, err := s.storage.ListPostsNear(ctx, lat, lng, radiusMeters)
	if err != nil {
		return nil, err
	}
	return mapPostResponses(details), nil
}

func (s *PostService) requireCreator(ctx context.Context, identity *models.Identity, postID int64) error {
	detail, err := s.storage.GetPostByID(ctx, postID)
	if err != nil {
		return err
	}
	if detail.CreatorID != identity.UserID {
		return ErrPostEditNotAllowed
	}
	return nil
}

func mapPostResponses(details []models.PostDetail) []models.PostResponse {
	responses := make([]models.PostResponse, 0, len(details))
	for i := range details {
		responses = append(responses, models.NewPostResponse(&details[i]))
	}
	return responses
}
