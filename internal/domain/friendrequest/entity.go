package friendrequest

import (
	"time"

	drift_errors "driftchat/pkg/errors"

	"github.com/google/uuid"
)

// Status is the friend-request state. Legal transitions:
//
//	pending -> accepted | rejected | cancelled
//
// accepted, rejected and cancelled are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// FriendRequest represents the friend_requests table. One row exists per
// unordered user pair; re-requesting after a terminal rejection or
// cancellation reuses the row (upsert keyed by the pair).
type FriendRequest struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	FromID         uuid.UUID `gorm:"type:uuid;index:idx_friend_requests_pair;not null"`
	ToID           uuid.UUID `gorm:"type:uuid;index:idx_friend_requests_pair;not null"`
	Status         Status    `gorm:"not null;default:pending"`
	ConversationID uuid.UUID `gorm:"type:uuid;index;not null"`
	DeleteAt       time.Time `gorm:"index;not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (FriendRequest) TableName() string {
	return "friend_requests"
}

// Transition validates a status change. All the negotiator's conflict rules
// funnel through here instead of being re-checked per handler.
func Transition(from, to Status) error {
	if from != StatusPending {
		return drift_errors.ErrInvalidTransition
	}
	switch to {
	case StatusAccepted, StatusRejected, StatusCancelled:
		return nil
	}
	return drift_errors.ErrInvalidTransition
}

// Blocks reports whether an existing request in this status prevents a new
// request for the same pair. A pending request is in flight and an accepted
// one already made the pair friends; rejected and cancelled requests are
// spent and do not block re-requesting.
func (s Status) Blocks() bool {
	return s == StatusPending || s == StatusAccepted
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s != StatusPending
}
