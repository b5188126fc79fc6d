package services

import (
	"context"
	"errors"
	"time"

	"driftchat/internal/domain/message"
	"driftchat/internal/domain/user"
	"driftchat/internal/events"
	"driftchat/internal/match"
	"driftchat/internal/repository"
	"driftchat/internal/storage"
	drift_errors "driftchat/pkg/errors"
	"driftchat/pkg/logger"

	"github.com/google/uuid"
)

// MatchService implements the matchmaker and session teardown over the
// match registry. All queue/pairing bookkeeping is done by the registry in
// single atomic steps after the required reads complete, so concurrent join
// attempts never observe a half-made match.
type MatchService struct {
	registry *match.Registry
	users    repository.UserRepository
	blocks   repository.BlockRepository
	convs    repository.ConversationRepository
	msgs     repository.MessageRepository
	media    storage.MediaDeleter
	notifier Notifier
	log      *logger.Logger

	randomTTL time.Duration
}

func NewMatchService(
	registry *match.Registry,
	users repository.UserRepository,
	blocks repository.BlockRepository,
	convs repository.ConversationRepository,
	msgs repository.MessageRepository,
	media storage.MediaDeleter,
	notifier Notifier,
	log *logger.Logger,
	randomTTL time.Duration,
) *MatchService {
	if randomTTL == 0 {
		randomTTL = 30 * 24 * time.Hour
	}
	return &MatchService{
		registry:  registry,
		users:     users,
		blocks:    blocks,
		convs:     convs,
		msgs:      msgs,
		media:     media,
		notifier:  notifier,
		log:       log,
		randomTTL: randomTTL,
	}
}

// JoinQueue pairs the connection with the earliest eligible waiting
// candidate, or enqueues it. Calling it while already waiting or matched is
// a safe retry that just re-acknowledges.
func (s *MatchService) JoinQueue(ctx context.Context, connID string) error {
	userID, ok := s.registry.Lookup(connID)
	if !ok {
		return drift_errors.ErrStaleConnection
	}

	if s.registry.IsQueued(connID) || s.registry.IsPaired(connID) {
		s.notifier.Send(connID, events.OutWaiting, nil)
		return nil
	}

	requester, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, drift_errors.ErrNotFound) {
			s.sendError(connID, "your profile could not be found")
			return drift_errors.ErrProfileMissing
		}
		s.sendError(connID, "matching is temporarily unavailable")
		return err
	}
	if _, err := s.users.EnsureSettings(ctx, userID); err != nil {
		s.log.Warnf("ensure settings for %s: %v", userID, err)
	}

	matched, err := s.tryMatch(ctx, connID, userID, requester)
	if err != nil {
		return err
	}
	if matched {
		return nil
	}

	if !s.registry.Enqueue(connID) {
		// A concurrent joiner paired us between the scan and the enqueue;
		// it already sent the matched event.
		return nil
	}
	s.notifier.Send(connID, events.OutWaiting, nil)

	// Two joiners can scan each other's empty queue and enqueue without
	// either seeing the other. Rescanning after our own enqueue closes the
	// window: the later enqueuer always observes the earlier one.
	s.tryMatch(ctx, connID, userID, requester)
	return nil
}

// tryMatch walks the waiting queue in FIFO order and pairs with the first
// eligible candidate. Pair re-validates under the registry lock, so a
// candidate that left or got claimed between the snapshot and the pairing is
// skipped.
func (s *MatchService) tryMatch(ctx context.Context, connID string, userID uuid.UUID, requester user.User) (bool, error) {
	for _, candConn := range s.registry.QueueSnapshot() {
		if candConn == connID {
			continue
		}
		candUser, ok := s.registry.Lookup(candConn)
		if !ok || candUser == userID {
			continue
		}

		candSettings, err := s.users.EnsureSettings(ctx, candUser)
		if err != nil {
			s.log.Warnf("ensure settings for %s: %v", candUser, err)
		} else if !candSettings.AllowRandomChat {
			continue
		}

		blocked, err := s.blocks.IsBlockedEither(ctx, userID, candUser)
		if err != nil {
			s.sendError(connID, "matching is temporarily unavailable")
			return false, err
		}
		if blocked {
			// Skip past a blocked candidate and keep scanning; a blocked
			// pair must not stall the rest of the queue.
			continue
		}

		candidate, err := s.users.GetByID(ctx, candUser)
		if err != nil {
			s.log.Warnf("candidate profile %s: %v", candUser, err)
			continue
		}

		if err := s.registry.Pair(connID, candConn); err != nil {
			// The candidate left or got matched while we were reading.
			continue
		}

		s.notifier.Send(connID, events.OutMatched, events.MatchedPayload{
			PartnerID:      candUser,
			PartnerProfile: candidate.Sanitized(),
		})
		s.notifier.Send(candConn, events.OutMatched, events.MatchedPayload{
			PartnerID:      userID,
			PartnerProfile: requester.Sanitized(),
		})
		return true, nil
	}
	return false, nil
}

// Leave tears down the connection's session: the partner is notified, the
// random conversation's media-bearing messages are reclaimed, the
// conversation is deactivated, and every queue/pairing entry is removed.
// Safe to call on a connection with no partner and no queue entry.
func (s *MatchService) Leave(ctx context.Context, connID string) error {
	// The pairing carries both user ids, so cleanup still runs when the
	// connection's presence entry is already gone, e.g. after a reconnect
	// superseded it.
	p, hadPartner := s.registry.Unpair(connID)
	if hadPartner {
		s.notifier.Send(p.PartnerConn, events.OutPartnerDisconnected, nil)
		s.cleanupConversation(ctx, p.UserID, p.PartnerID)
	}

	s.registry.RemoveFromQueue(connID)
	return nil
}

// Next is teardown followed by a fresh join.
func (s *MatchService) Next(ctx context.Context, connID string) error {
	if err := s.Leave(ctx, connID); err != nil {
		return err
	}
	return s.JoinQueue(ctx, connID)
}

// Relay persists a message and forwards it to the partner. Persistence is
// unconditional; delivery is at-most-once and a failure is reported to the
// sender only.
func (s *MatchService) Relay(ctx context.Context, connID, content, msgType string) error {
	userID, ok := s.registry.Lookup(connID)
	if !ok {
		return drift_errors.ErrStaleConnection
	}

	partnerConn, ok := s.registry.Partner(connID)
	if !ok {
		s.sendError(connID, "no active match")
		return drift_errors.ErrNoActiveMatch
	}
	partnerUser, ok := s.registry.Lookup(partnerConn)
	if !ok {
		s.sendError(connID, "partner is offline")
		return drift_errors.ErrPartnerOffline
	}

	if msgType == "" {
		msgType = message.TypeText
	}

	conv, err := s.convs.GetOrCreateRandom(ctx, userID, partnerUser)
	if err != nil {
		s.sendError(connID, "message could not be saved")
		return err
	}

	now := time.Now()
	m := &message.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SenderID:       userID,
		Content:        content,
		Type:           msgType,
		DeleteAt:       now.Add(s.randomTTL),
		CreatedAt:      now,
	}
	if message.IsMediaType(msgType) {
		m.MediaURL.String = content
		m.MediaURL.Valid = true
	}
	if err := s.msgs.Create(ctx, m); err != nil {
		s.sendError(connID, "message could not be saved")
		return err
	}

	payload := events.MessagePayload{
		Message:   content,
		SenderID:  userID,
		Type:      msgType,
		Timestamp: now,
	}
	if err := s.notifier.Send(partnerConn, events.OutMessage, payload); err != nil {
		s.sendError(connID, "message could not be delivered")
	}
	return nil
}

// Typing forwards a typing indicator to the partner only. Nothing is
// persisted and a missing partner is not an error.
func (s *MatchService) Typing(ctx context.Context, connID string, started bool) {
	partnerConn, ok := s.registry.Partner(connID)
	if !ok {
		return
	}
	event := events.OutTyping
	if !started {
		event = events.OutStopTyping
	}
	s.notifier.Send(partnerConn, event, nil)
}

func (s *MatchService) cleanupConversation(ctx context.Context, userID, partnerUser uuid.UUID) {
	conv, err := s.convs.FindRandomByUsers(ctx, userID, partnerUser)
	if err != nil {
		if !errors.Is(err, drift_errors.ErrNotFound) {
			s.log.Warnf("find random conversation: %v", err)
		}
		return
	}

	withMedia, err := s.msgs.ListWithMediaByConversation(ctx, conv.ID)
	if err != nil {
		s.log.Warnf("list media messages for %s: %v", conv.ID, err)
	}
	for _, m := range withMedia {
		if err := s.media.DeleteByURL(ctx, m.MediaURL.String); err != nil {
			s.log.Warnf("delete media %s: %v", m.MediaURL.String, err)
			continue
		}
		if err := s.msgs.Delete(ctx, m.ID); err != nil && !errors.Is(err, drift_errors.ErrNotFound) {
			s.log.Warnf("delete message %s: %v", m.ID, err)
		}
	}

	if err := s.convs.Deactivate(ctx, conv.ID); err != nil && !errors.Is(err, drift_errors.ErrNotFound) {
		s.log.Warnf("deactivate conversation %s: %v", conv.ID, err)
	}
}

func (s *MatchService) sendError(connID, msg string) {
	s.notifier.Send(connID, events.OutError, events.ErrorPayload{Message: msg})
}
