package services

import (
	"context"
	"database/sql"
	"time"

	"driftchat/internal/domain/conversation"
	"driftchat/internal/domain/message"
	"driftchat/internal/events"
	"driftchat/internal/match"
	"driftchat/internal/repository"
	drift_errors "driftchat/pkg/errors"

	"github.com/google/uuid"
)

// ChatService serves the REST surface for durable conversations: the
// private-chat listing (conversations backed by an accepted friend request),
// chronological message history, and the private send path. Private messages
// carry the 90-day retention window; delivery to an online recipient is a
// best-effort side effect of persistence.
type ChatService struct {
	convs      repository.ConversationRepository
	msgs       repository.MessageRepository
	registry   *match.Registry
	notifier   Notifier
	privateTTL time.Duration
}

func NewChatService(
	convs repository.ConversationRepository,
	msgs repository.MessageRepository,
	registry *match.Registry,
	notifier Notifier,
	privateTTL time.Duration,
) *ChatService {
	if privateTTL == 0 {
		privateTTL = 90 * 24 * time.Hour
	}
	return &ChatService{
		convs:      convs,
		msgs:       msgs,
		registry:   registry,
		notifier:   notifier,
		privateTTL: privateTTL,
	}
}

func (s *ChatService) ListPrivateConversations(ctx context.Context, userID uuid.UUID) ([]conversation.Conversation, error) {
	return s.convs.ListPrivate(ctx, userID)
}

func (s *ChatService) GetMessages(ctx context.Context, userID, conversationID uuid.UUID, limit int) ([]message.Message, error) {
	conv, err := s.convs.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.ParticipantA != userID && conv.ParticipantB != userID {
		return nil, drift_errors.ErrForbidden
	}
	return s.msgs.ListByConversation(ctx, conversationID, limit)
}

// SendMessage persists a message in a private conversation and forwards it
// to the other participant when they are online. Random-chat conversations
// belong to the realtime relay and are rejected here.
func (s *ChatService) SendMessage(ctx context.Context, userID, conversationID uuid.UUID, content, msgType string) (message.Message, error) {
	conv, err := s.convs.GetByID(ctx, conversationID)
	if err != nil {
		return message.Message{}, err
	}
	if conv.ParticipantA != userID && conv.ParticipantB != userID {
		return message.Message{}, drift_errors.ErrForbidden
	}
	if conv.IsRandomChat {
		return message.Message{}, drift_errors.ErrInvalidInput
	}

	if msgType == "" {
		msgType = message.TypeText
	}

	now := time.Now()
	m := message.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SenderID:       userID,
		Content:        content,
		Type:           msgType,
		DeleteAt:       now.Add(s.privateTTL),
		CreatedAt:      now,
	}
	if message.IsMediaType(msgType) {
		m.MediaURL = sql.NullString{String: content, Valid: true}
	}
	if err := s.msgs.Create(ctx, &m); err != nil {
		return message.Message{}, err
	}

	if recipientConn, online := s.registry.ConnectionOf(conv.Other(userID)); online {
		s.notifier.Send(recipientConn, events.OutPrivateMessage, events.PrivateMessagePayload{
			ConversationID: conv.ID,
			Message:        content,
			SenderID:       userID,
			Type:           msgType,
			Timestamp:      now,
		})
	}
	return m, nil
}
