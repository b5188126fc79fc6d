package server

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"driftchat/internal/events"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var (
	newline = []byte{'\n'}
	space   = []byte{' '}
)

// Client represents a single WebSocket connection
type Client struct {
	hub          *Hub
	conn         *websocket.Conn
	send         chan []byte
	userID       uuid.UUID
	connID       string
	connectedAt  time.Time
	lastActivity time.Time
	logger       *WebSocketLogger
}

type messageData struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type partnerData struct {
	PartnerID uuid.UUID `json:"partnerId"`
}

type directRequestData struct {
	PartnerUserID uuid.UUID `json:"partnerUserId"`
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID, connID string, logger *WebSocketLogger) *Client {
	now := time.Now()
	return &Client{
		hub:          hub,
		conn:         conn,
		send:         make(chan []byte, 256),
		userID:       userID,
		connID:       connID,
		connectedAt:  now,
		lastActivity: now,
		logger:       logger,
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.lastActivity = time.Now()
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket unexpected close", c.userID, c.connID, err)
			}
			break
		}

		raw = bytes.TrimSpace(bytes.Replace(raw, newline, space, -1))
		c.lastActivity = time.Now()

		if err := c.handleMessage(raw); err != nil {
			c.logger.Error("websocket handle message failed", c.userID, c.connID, err)
		}
	}
}

func (c *Client) handleMessage(raw []byte) error {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return err
	}

	ctx := context.Background()

	switch env.Event {
	case events.InJoinRandom:
		return c.hub.matchService.JoinQueue(ctx, c.connID)

	case events.InRandomMessage:
		var d messageData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return err
		}
		return c.hub.matchService.Relay(ctx, c.connID, d.Message, d.Type)

	case events.InRandomNext:
		return c.hub.matchService.Next(ctx, c.connID)

	case events.InRandomDisconn:
		return c.hub.matchService.Leave(ctx, c.connID)

	case events.InRandomTyping:
		c.hub.matchService.Typing(ctx, c.connID, true)
		return nil

	case events.InRandomStopTyp:
		c.hub.matchService.Typing(ctx, c.connID, false)
		return nil

	case events.InPrivateRequest:
		return c.hub.friendReqs.Request(ctx, c.connID)

	case events.InPrivateAccept:
		var d partnerData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return err
		}
		return c.hub.friendReqs.Accept(ctx, c.connID, d.PartnerID)

	case events.InPrivateReject:
		var d partnerData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return err
		}
		return c.hub.friendReqs.Reject(ctx, c.connID, d.PartnerID)

	case events.InPrivateCancel:
		var d partnerData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return err
		}
		return c.hub.friendReqs.Cancel(ctx, c.connID, d.PartnerID)

	case events.InRequestDirectly:
		var d directRequestData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return err
		}
		return c.hub.friendReqs.RequestDirect(ctx, c.connID, d.PartnerUserID)

	case "ping":
		c.send <- []byte(`{"event":"pong"}`)
		return nil

	default:
		c.logger.Warn("unknown event", c.userID, c.connID, zap.String("ws_event", env.Event))
		return nil
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write(newline)
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

			if time.Since(c.lastActivity) > pongWait*2 {
				c.logger.Info("client idle timeout", c.userID, c.connID)
				return
			}
		}
	}
}
