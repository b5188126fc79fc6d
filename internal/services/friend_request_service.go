package services

import (
	"context"
	"errors"
	"time"

	"driftchat/internal/domain/friendrequest"
	"driftchat/internal/events"
	"driftchat/internal/match"
	"driftchat/internal/repository"
	drift_errors "driftchat/pkg/errors"
	"driftchat/pkg/logger"

	"github.com/google/uuid"
)

// FriendRequestService is the negotiator that upgrades an ephemeral random
// pairing into a durable private conversation. DB writes are unconditional;
// notifying the other side is a best-effort side effect.
type FriendRequestService struct {
	registry *match.Registry
	users    repository.UserRepository
	convs    repository.ConversationRepository
	requests repository.FriendRequestRepository
	notifier Notifier
	log      *logger.Logger

	requestTTL time.Duration
}

func NewFriendRequestService(
	registry *match.Registry,
	users repository.UserRepository,
	convs repository.ConversationRepository,
	requests repository.FriendRequestRepository,
	notifier Notifier,
	log *logger.Logger,
	requestTTL time.Duration,
) *FriendRequestService {
	if requestTTL == 0 {
		requestTTL = 30 * 24 * time.Hour
	}
	return &FriendRequestService{
		registry:   registry,
		users:      users,
		convs:      convs,
		requests:   requests,
		notifier:   notifier,
		log:        log,
		requestTTL: requestTTL,
	}
}

// Request proposes upgrading the caller's current random pairing. Requires
// an active match with a reachable partner and no in-flight or accepted
// request for the pair.
func (s *FriendRequestService) Request(ctx context.Context, connID string) error {
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

	conv, err := s.convs.GetOrCreateRandom(ctx, userID, partnerUser)
	if err != nil {
		s.sendError(connID, "request could not be saved")
		return err
	}

	if err := s.checkNoBlockingRequest(ctx, connID, userID, partnerUser); err != nil {
		return err
	}

	fr := &friendrequest.FriendRequest{
		FromID:         userID,
		ToID:           partnerUser,
		Status:         friendrequest.StatusPending,
		ConversationID: conv.ID,
		DeleteAt:       time.Now().Add(s.requestTTL),
	}
	if err := s.requests.Save(ctx, fr); err != nil {
		s.sendError(connID, "request could not be saved")
		return err
	}

	s.notifier.Send(partnerConn, events.OutRequestReceived, requestPayload(fr))
	return nil
}

// RequestDirect creates a friend request between two users with no random
// pairing, backed by a fresh non-random conversation.
func (s *FriendRequestService) RequestDirect(ctx context.Context, connID string, toUserID uuid.UUID) error {
	fromID, ok := s.registry.Lookup(connID)
	if !ok {
		return drift_errors.ErrStaleConnection
	}
	if fromID == toUserID {
		s.sendError(connID, "cannot send a friend request to yourself")
		return drift_errors.ErrInvalidInput
	}
	if _, err := s.users.GetByID(ctx, toUserID); err != nil {
		s.sendError(connID, "user not found")
		return err
	}

	if err := s.checkNoBlockingRequest(ctx, connID, fromID, toUserID); err != nil {
		return err
	}

	conv, err := s.convs.GetOrCreateDirect(ctx, fromID, toUserID)
	if err != nil {
		s.sendError(connID, "request could not be saved")
		return err
	}

	fr := &friendrequest.FriendRequest{
		FromID:         fromID,
		ToID:           toUserID,
		Status:         friendrequest.StatusPending,
		ConversationID: conv.ID,
		DeleteAt:       time.Now().Add(s.requestTTL),
	}
	if err := s.requests.Save(ctx, fr); err != nil {
		s.sendError(connID, "request could not be saved")
		return err
	}

	if toConn, online := s.registry.ConnectionOf(toUserID); online {
		s.notifier.Send(toConn, events.OutRequestReceived, requestPayload(fr))
	}
	return nil
}

// Accept transitions the pending request from partnerID to the caller into
// accepted, which promotes the pair's conversation to the durable private
// listing.
func (s *FriendRequestService) Accept(ctx context.Context, connID string, partnerID uuid.UUID) error {
	return s.resolve(ctx, connID, partnerID, friendrequest.StatusAccepted)
}

// Reject transitions the pending request into rejected and notifies the
// requester.
func (s *FriendRequestService) Reject(ctx context.Context, connID string, partnerID uuid.UUID) error {
	return s.resolve(ctx, connID, partnerID, friendrequest.StatusRejected)
}

// Cancel withdraws the caller's own pending request. The write always
// happens; the partner is notified only if reachable.
func (s *FriendRequestService) Cancel(ctx context.Context, connID string, partnerID uuid.UUID) error {
	userID, ok := s.registry.Lookup(connID)
	if !ok {
		return drift_errors.ErrStaleConnection
	}

	fr, err := s.requests.FindPendingByPair(ctx, userID, partnerID)
	if err != nil {
		if errors.Is(err, drift_errors.ErrNotFound) {
			s.sendError(connID, "no pending request to cancel")
			return drift_errors.ErrNotFound
		}
		s.sendError(connID, "request could not be updated")
		return err
	}
	if fr.FromID != userID {
		s.sendError(connID, "only the requester can cancel")
		return drift_errors.ErrForbidden
	}

	if err := friendrequest.Transition(fr.Status, friendrequest.StatusCancelled); err != nil {
		s.sendError(connID, "request is no longer pending")
		return err
	}
	if err := s.requests.UpdateStatus(ctx, fr.ID, friendrequest.StatusCancelled); err != nil {
		s.sendError(connID, "request could not be updated")
		return err
	}

	fr.Status = friendrequest.StatusCancelled
	if toConn, online := s.registry.ConnectionOf(fr.ToID); online {
		s.notifier.Send(toConn, events.OutRequestCancelled, requestPayload(&fr))
	}
	return nil
}

func (s *FriendRequestService) resolve(ctx context.Context, connID string, partnerID uuid.UUID, to friendrequest.Status) error {
	userID, ok := s.registry.Lookup(connID)
	if !ok {
		return drift_errors.ErrStaleConnection
	}

	fr, err := s.requests.FindPendingByPair(ctx, userID, partnerID)
	if err != nil {
		if errors.Is(err, drift_errors.ErrNotFound) {
			s.sendError(connID, "no pending request found")
			return drift_errors.ErrNotFound
		}
		s.sendError(connID, "request could not be updated")
		return err
	}
	if fr.ToID != userID {
		s.sendError(connID, "only the recipient can respond to a request")
		return drift_errors.ErrForbidden
	}

	if err := friendrequest.Transition(fr.Status, to); err != nil {
		s.sendError(connID, "request is no longer pending")
		return err
	}
	if err := s.requests.UpdateStatus(ctx, fr.ID, to); err != nil {
		s.sendError(connID, "request could not be updated")
		return err
	}

	fr.Status = to
	event := events.OutRequestAccepted
	if to == friendrequest.StatusRejected {
		event = events.OutRequestRejected
	}
	if fromConn, online := s.registry.ConnectionOf(fr.FromID); online {
		s.notifier.Send(fromConn, event, requestPayload(&fr))
	}
	return nil
}

// checkNoBlockingRequest enforces single-flight: a pending or accepted
// request for the unordered pair blocks a new one. Rejected and cancelled
// requests are spent and allow re-requesting.
func (s *FriendRequestService) checkNoBlockingRequest(ctx context.Context, connID string, a, b uuid.UUID) error {
	existing, err := s.requests.FindByPair(ctx, a, b)
	if err != nil {
		if errors.Is(err, drift_errors.ErrNotFound) {
			return nil
		}
		s.sendError(connID, "request could not be saved")
		return err
	}
	if existing.Status.Blocks() {
		s.sendError(connID, "a friend request already exists for this pair")
		return drift_errors.ErrRequestPending
	}
	return nil
}

func (s *FriendRequestService) sendError(connID, msg string) {
	s.notifier.Send(connID, events.OutError, events.ErrorPayload{Message: msg})
}

func requestPayload(fr *friendrequest.FriendRequest) events.RequestPayload {
	return events.RequestPayload{
		RequestID:      fr.ID,
		FromID:         fr.FromID,
		ToID:           fr.ToID,
		Status:         string(fr.Status),
		ConversationID: fr.ConversationID,
	}
}
