package repository

import (
	"context"
	"errors"

	"driftchat/internal/domain/conversation"
	"driftchat/internal/domain/friendrequest"
	drift_errors "driftchat/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresFriendRequestRepository struct {
	db *gorm.DB
}

func NewFriendRequestRepository(db *gorm.DB) FriendRequestRepository {
	return &PostgresFriendRequestRepository{db: db}
}

func (r *PostgresFriendRequestRepository) FindByPair(ctx context.Context, a, b uuid.UUID) (friendrequest.FriendRequest, error) {
	var fr friendrequest.FriendRequest
	err := r.db.WithContext(ctx).
		Where("(from_id = ? AND to_id = ?) OR (from_id = ? AND to_id = ?)", a, b, b, a).
		Order("updated_at DESC").
		First(&fr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return friendrequest.FriendRequest{}, drift_errors.ErrNotFound
		}
		return friendrequest.FriendRequest{}, err
	}
	return fr, nil
}

func (r *PostgresFriendRequestRepository) FindPendingByPair(ctx context.Context, a, b uuid.UUID) (friendrequest.FriendRequest, error) {
	var fr friendrequest.FriendRequest
	err := r.db.WithContext(ctx).
		Where("((from_id = ? AND to_id = ?) OR (from_id = ? AND to_id = ?)) AND status = ?",
			a, b, b, a, friendrequest.StatusPending).
		First(&fr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return friendrequest.FriendRequest{}, drift_errors.ErrNotFound
		}
		return friendrequest.FriendRequest{}, err
	}
	return fr, nil
}

// Save upserts the request keyed by the unordered user pair: a spent
// (rejected/cancelled) row for the pair is reused rather than duplicated.
func (r *PostgresFriendRequestRepository) Save(ctx context.Context, fr *friendrequest.FriendRequest) error {
	pa, pb := conversation.NormalizePair(fr.FromID, fr.ToID)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing friendrequest.FriendRequest
		err := tx.Where("(from_id = ? AND to_id = ?) OR (from_id = ? AND to_id = ?)", pa, pb, pb, pa).
			First(&existing).Error
		if err == nil {
			fr.ID = existing.ID
			fr.CreatedAt = existing.CreatedAt
			return tx.Save(fr).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if fr.ID == uuid.Nil {
			fr.ID = uuid.New()
		}
		return tx.Create(fr).Error
	})
}

func (r *PostgresFriendRequestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status friendrequest.Status) error {
	res := r.db.WithContext(ctx).
		Model(&friendrequest.FriendRequest{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return drift_errors.ErrNotFound
	}
	return nil
}
