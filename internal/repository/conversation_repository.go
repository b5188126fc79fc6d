package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"driftchat/internal/domain/conversation"
	"driftchat/internal/domain/friendrequest"
	drift_errors "driftchat/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &PostgresConversationRepository{db: db}
}

func (r *PostgresConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error) {
	var c conversation.Conversation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return conversation.Conversation{}, drift_errors.ErrNotFound
		}
		return conversation.Conversation{}, err
	}
	return c, nil
}

func (r *PostgresConversationRepository) GetOrCreateRandom(ctx context.Context, a, b uuid.UUID) (conversation.Conversation, error) {
	pa, pb := conversation.NormalizePair(a, b)

	var c conversation.Conversation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("participant_a = ? AND participant_b = ? AND is_random_chat = ?", pa, pb, true).
			First(&c).Error
		if err == nil {
			if !c.IsActive {
				now := time.Now()
				c.IsActive = true
				c.MatchedAt = toNullTime(now)
				return tx.Save(&c).Error
			}
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now()
		c = conversation.Conversation{
			ID:           uuid.New(),
			ParticipantA: pa,
			ParticipantB: pb,
			IsRandomChat: true,
			IsActive:     true,
			MatchedAt:    toNullTime(now),
		}
		return tx.Create(&c).Error
	})
	if err != nil {
		return conversation.Conversation{}, err
	}
	return c, nil
}

func (r *PostgresConversationRepository) FindRandomByUsers(ctx context.Context, a, b uuid.UUID) (conversation.Conversation, error) {
	pa, pb := conversation.NormalizePair(a, b)

	var c conversation.Conversation
	err := r.db.WithContext(ctx).
		Where("participant_a = ? AND participant_b = ? AND is_random_chat = ?", pa, pb, true).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return conversation.Conversation{}, drift_errors.ErrNotFound
		}
		return conversation.Conversation{}, err
	}
	return c, nil
}

func (r *PostgresConversationRepository) GetOrCreateDirect(ctx context.Context, a, b uuid.UUID) (conversation.Conversation, error) {
	pa, pb := conversation.NormalizePair(a, b)

	var c conversation.Conversation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("participant_a = ? AND participant_b = ? AND is_random_chat = ?", pa, pb, false).
			First(&c).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		c = conversation.Conversation{
			ID:           uuid.New(),
			ParticipantA: pa,
			ParticipantB: pb,
			IsRandomChat: false,
			IsActive:     true,
		}
		return tx.Create(&c).Error
	})
	if err != nil {
		return conversation.Conversation{}, err
	}
	return c, nil
}

func (r *PostgresConversationRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&conversation.Conversation{}).
		Where("id = ?", id).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return drift_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresConversationRepository) ListPrivate(ctx context.Context, userID uuid.UUID) ([]conversation.Conversation, error) {
	var conversations []conversation.Conversation

	subQuery := r.db.Model(&friendrequest.FriendRequest{}).
		Select("conversation_id").
		Where("status = ?", friendrequest.StatusAccepted)

	err := r.db.WithContext(ctx).
		Where("id IN (?) AND (participant_a = ? OR participant_b = ?)", subQuery, userID, userID).
		Order("updated_at DESC").
		Find(&conversations).Error
	if err != nil {
		return nil, err
	}
	return conversations, nil
}

func toNullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: true}
}
