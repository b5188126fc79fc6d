package events

import (
	"time"

	"driftchat/internal/domain/user"

	"github.com/google/uuid"
)

// Protocol verbs. Inbound names are what clients send; outbound names are
// what the core emits. Both are case-sensitive.
const (
	// Inbound
	InJoinRandom      = "join-random"
	InRandomMessage   = "random:message"
	InRandomNext      = "random:next"
	InRandomDisconn   = "random:disconnect"
	InRandomTyping    = "random:typing"
	InRandomStopTyp   = "random:stop-typing"
	InPrivateRequest  = "privateChat:request"
	InPrivateAccept   = "privateChat:accept"
	InPrivateReject   = "privateChat:reject"
	InPrivateCancel   = "privateChat:cancel"
	InRequestDirectly = "friendRequest:directly"

	// Outbound
	OutWaiting             = "random:waiting"
	OutMatched             = "random:matched"
	OutMessage             = "random:message"
	OutPartnerDisconnected = "random:partner-disconnected"
	OutTyping              = "random:typing"
	OutStopTyping          = "random:stop-typing"
	OutError               = "random:error"
	OutRequestReceived     = "privateChat:requestReceived"
	OutRequestAccepted     = "privateChat:requestAccepted"
	OutRequestRejected     = "privateChat:requestRejected"
	OutRequestCancelled    = "privateChat:requestCancelled"
	OutPrivateMessage      = "privateChat:message"
	OutPresenceChanged     = "presence:changed"
)

type MatchedPayload struct {
	PartnerID      uuid.UUID    `json:"partnerId"`
	PartnerProfile user.Profile `json:"partnerProfile"`
}

type MessagePayload struct {
	Message   string    `json:"message"`
	SenderID  uuid.UUID `json:"senderId"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

type PrivateMessagePayload struct {
	ConversationID uuid.UUID `json:"conversationId"`
	Message        string    `json:"message"`
	SenderID       uuid.UUID `json:"senderId"`
	Type           string    `json:"type"`
	Timestamp      time.Time `json:"timestamp"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type RequestPayload struct {
	RequestID      uuid.UUID `json:"requestId"`
	FromID         uuid.UUID `json:"fromId"`
	ToID           uuid.UUID `json:"toId"`
	Status         string    `json:"status"`
	ConversationID uuid.UUID `json:"conversationId"`
}

type PresencePayload struct {
	UserID   uuid.UUID `json:"userId"`
	IsOnline bool      `json:"isOnline"`
}
