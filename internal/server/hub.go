package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"driftchat/internal/events"
	"driftchat/internal/match"
	"driftchat/internal/redis"
	"driftchat/internal/services"

	"github.com/google/uuid"
)

// Hub owns the set of live websocket clients and is the transport half of
// the presence registry: the match registry maps ids, the hub maps a
// connection id to the actual socket at the point of sending.
type Hub struct {
	clients      map[string]*Client
	register     chan *Client
	unregister   chan *Client
	registry     *match.Registry
	matchService *services.MatchService
	friendReqs   *services.FriendRequestService
	presence     *redis.PresenceStore
	logger       *WebSocketLogger
	mu           sync.RWMutex
	stopChan     chan struct{}
}

// Envelope frames every message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outEnvelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

func NewHub(registry *match.Registry, presence *redis.PresenceStore) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		registry:   registry,
		presence:   presence,
		logger:     NewWebSocketLogger(),
		stopChan:   make(chan struct{}),
	}
}

// SetServices wires the services that need the hub as their notifier.
func (h *Hub) SetServices(matchService *services.MatchService, friendReqs *services.FriendRequestService) {
	h.matchService = matchService
	h.friendReqs = friendReqs
}

// Run starts the Hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)

		case <-h.stopChan:
			return
		}
	}
}

// Send implements services.Notifier. Delivery is at-most-once: an offline
// connection or a full send buffer is an error to the caller, never a
// retry.
func (h *Hub) Send(connID string, event string, payload interface{}) error {
	h.mu.RLock()
	client, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return errors.New("connection not found")
	}

	data, err := json.Marshal(outEnvelope{Event: event, Data: payload})
	if err != nil {
		return err
	}

	select {
	case client.send <- data:
		return nil
	default:
		h.logger.Warn("client send buffer full", client.userID, client.connID)
		return errors.New("client send buffer full")
	}
}

func (h *Hub) handleRegister(client *Client) {
	// One connection per user: a new connection supersedes the old one,
	// which is torn down exactly as if it had disconnected.
	superseded := h.registry.Register(client.userID, client.connID)
	if superseded != "" {
		h.teardown(superseded)
	}

	h.mu.Lock()
	h.clients[client.connID] = client
	h.mu.Unlock()

	if h.presence != nil {
		if err := h.presence.SetOnline(context.Background(), client.userID.String()); err != nil {
			h.logger.Warn("presence set online failed", client.userID, client.connID)
		}
	}
	h.broadcastPresence(client.userID, true, client.connID)

	h.logger.Info("client connected", client.userID, client.connID)

	go client.writePump()
	go client.readPump()
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	current, ok := h.clients[client.connID]
	if !ok || current != client {
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	h.teardown(client.connID)

	if h.presence != nil {
		if err := h.presence.SetOffline(context.Background(), client.userID.String()); err != nil {
			h.logger.Warn("presence set offline failed", client.userID, client.connID)
		}
	}
	h.broadcastPresence(client.userID, false, client.connID)

	h.logger.Info("client disconnected", client.userID, client.connID)
}

// teardown runs the unconditional cleanup hook for a terminating
// connection: session teardown first (while the registry can still resolve
// both users), then presence removal, then the socket itself.
func (h *Hub) teardown(connID string) {
	if h.matchService != nil {
		h.matchService.Leave(context.Background(), connID)
	}
	h.registry.Unregister(connID)

	h.mu.Lock()
	client, ok := h.clients[connID]
	if ok {
		delete(h.clients, connID)
	}
	h.mu.Unlock()

	if ok {
		close(client.send)
		client.conn.Close()
	}
}

func (h *Hub) broadcastPresence(userID uuid.UUID, online bool, exceptConnID string) {
	payload := events.PresencePayload{UserID: userID, IsOnline: online}
	data, err := json.Marshal(outEnvelope{Event: events.OutPresenceChanged, Data: payload})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for connID, client := range h.clients {
		if connID == exceptConnID {
			continue
		}
		select {
		case client.send <- data:
		default:
			h.logger.Warn("client send buffer full", client.userID, client.connID)
		}
	}
}

// Stop gracefully shuts down the Hub
func (h *Hub) Stop() {
	close(h.stopChan)

	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.clients = make(map[string]*Client)
	h.mu.Unlock()

	for _, client := range clients {
		close(client.send)
		client.conn.Close()
	}
}
