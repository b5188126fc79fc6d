package repository

import (
	"context"
	"errors"

	"driftchat/internal/domain/user"
	drift_errors "driftchat/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresBlockRepository struct {
	db *gorm.DB
}

func NewBlockRepository(db *gorm.DB) BlockRepository {
	return &PostgresBlockRepository{db: db}
}

func (r *PostgresBlockRepository) Create(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	b := user.Block{
		ID:        uuid.New(),
		BlockerID: blockerID,
		BlockedID: blockedID,
	}
	res := r.db.WithContext(ctx).Create(&b)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return drift_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresBlockRepository) Delete(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Delete(&user.Block{}, "blocker_id = ? AND blocked_id = ?", blockerID, blockedID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return drift_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresBlockRepository) IsBlockedEither(ctx context.Context, a, b uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&user.Block{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
