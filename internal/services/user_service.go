package services

import (
	"context"

	"driftchat/internal/domain/user"
	"driftchat/internal/repository"
	drift_errors "driftchat/pkg/errors"

	"github.com/google/uuid"
)

type UserService struct {
	users  repository.UserRepository
	blocks repository.BlockRepository
}

func NewUserService(users repository.UserRepository, blocks repository.BlockRepository) *UserService {
	return &UserService{users: users, blocks: blocks}
}

func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (user.Profile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return user.Profile{}, err
	}
	return u.Sanitized(), nil
}

func (s *UserService) GetSettings(ctx context.Context, userID uuid.UUID) (user.UserSettings, error) {
	return s.users.EnsureSettings(ctx, userID)
}

func (s *UserService) Block(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	if blockerID == blockedID {
		return drift_errors.ErrInvalidInput
	}
	if _, err := s.users.GetByID(ctx, blockedID); err != nil {
		return err
	}
	return s.blocks.Create(ctx, blockerID, blockedID)
}

func (s *UserService) Unblock(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	return s.blocks.Delete(ctx, blockerID, blockedID)
}
