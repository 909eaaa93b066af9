package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/junekoh/mealmeet/internal/models"
	"github.com/junekoh/mealmeet/internal/storage"
)

type UserService struct {
	storage storage.UserRepository
	log     *zap.SugaredLogger
}

func NewUserService(st storage.UserRepository, log *zap.SugaredLogger) *UserService {
	return &UserService{storage: st, log: log}
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*models.UserResponse, error) {
	user, err := s.storage.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := models.NewUserResponse(user)
	return &resp, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.UserResponse, error) {
	user, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	resp := models.NewUserResponse(user)
	return &resp, nil
}

func (s *UserService) List(ctx context.Context) ([]models.UserResponse, error) {
	users, err := s.storage.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]models.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, models.NewUserResponse(&users[i]))
	}
	return responses, nil
}

func (s *UserService) UpdateNickname(ctx context.Context, id int64, nickname string) error {
	return s.storage.UpdateNickname(ctx, id, nickname)
}
