package repository

import (
	"context"
	"time"

	"driftchat/internal/domain/conversation"
	"driftchat/internal/domain/friendrequest"
	"driftchat/internal/domain/message"
	"driftchat/internal/domain/user"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, id uuid.UUID) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByUsername(ctx context.Context, username string) (user.User, error)
	Update(ctx context.Context, u user.User) error
	// EnsureSettings creates a default settings row on first encounter and
	// returns the existing one otherwise.
	EnsureSettings(ctx context.Context, userID uuid.UUID) (user.UserSettings, error)
}

type BlockRepository interface {
	Create(ctx context.Context, blockerID, blockedID uuid.UUID) error
	Delete(ctx context.Context, blockerID, blockedID uuid.UUID) error
	// IsBlockedEither reports whether a block exists in either direction
	// between the two users.
	IsBlockedEither(ctx context.Context, a, b uuid.UUID) (bool, error)
}

type ConversationRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error)
	// GetOrCreateRandom returns the random-chat conversation for the
	// unordered user pair, creating and (re)activating it if needed.
	GetOrCreateRandom(ctx context.Context, a, b uuid.UUID) (conversation.Conversation, error)
	FindRandomByUsers(ctx context.Context, a, b uuid.UUID) (conversation.Conversation, error)
	// GetOrCreateDirect returns the non-random conversation for the pair,
	// creating it if needed (the direct friend-request variant).
	GetOrCreateDirect(ctx context.Context, a, b uuid.UUID) (conversation.Conversation, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	// ListPrivate returns the user's conversations backed by an accepted
	// friend request, newest first.
	ListPrivate(ctx context.Context, userID uuid.UUID) ([]conversation.Conversation, error)
}

type MessageRepository interface {
	Create(ctx context.Context, m *message.Message) error
	ListByConversation(ctx context.Context, conversationID uuid.UUID, limit int) ([]message.Message, error)
	ListWithMediaByConversation(ctx context.Context, conversationID uuid.UUID) ([]message.Message, error)
	DeleteByConversation(ctx context.Context, conversationID uuid.UUID) error
	// ListExpired returns messages whose DeleteAt has passed. The retention
	// window is baked into DeleteAt at creation, so one query covers both
	// the random and the private window.
	ListExpired(ctx context.Context, before time.Time, limit int) ([]message.Message, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type FriendRequestRepository interface {
	// FindByPair returns the request row for the unordered user pair.
	FindByPair(ctx context.Context, a, b uuid.UUID) (friendrequest.FriendRequest, error)
	FindPendingByPair(ctx context.Context, a, b uuid.UUID) (friendrequest.FriendRequest, error)
	// Save upserts the request keyed by the unordered pair.
	Save(ctx context.Context, fr *friendrequest.FriendRequest) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status friendrequest.Status) error
}
