package handler

import (
	"errors"
	"net/http"
	"strconv"

	"driftchat/internal/middleware"
	"driftchat/internal/services"
	"driftchat/internal/transport/httpdto"
	drift_errors "driftchat/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ChatHandler struct {
	chats *services.ChatService
}

func NewChatHandler(chats *services.ChatService) *ChatHandler {
	return &ChatHandler{chats: chats}
}

// ListPrivate returns the caller's durable private conversations, i.e. the
// ones backed by an accepted friend request.
func (h *ChatHandler) ListPrivate(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	conversations, err := h.chats.ListPrivateConversations(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("conversations unavailable", "INTERNAL_ERROR"))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(conversations))
}

// Messages returns a conversation's messages in chronological order.
func (h *ChatHandler) Messages(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_INPUT"))
		return
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}

	messages, err := h.chats.GetMessages(c.Request.Context(), userID, conversationID, limit)
	if err != nil {
		switch {
		case errors.Is(err, drift_errors.ErrNotFound):
			c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("conversation not found", "NOT_FOUND"))
		case errors.Is(err, drift_errors.ErrForbidden):
			c.JSON(http.StatusForbidden, httpdto.NewErrorResponse("not a participant", "FORBIDDEN"))
		default:
			c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("messages unavailable", "INTERNAL_ERROR"))
		}
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(messages))
}

type sendMessageRequest struct {
	Message string `json:"message" binding:"required"`
	Type    string `json:"type"`
}

// SendMessage posts a message to a private conversation.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_INPUT"))
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("message is required", "INVALID_INPUT"))
		return
	}

	m, err := h.chats.SendMessage(c.Request.Context(), userID, conversationID, req.Message, req.Type)
	if err != nil {
		switch {
		case errors.Is(err, drift_errors.ErrNotFound):
			c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("conversation not found", "NOT_FOUND"))
		case errors.Is(err, drift_errors.ErrForbidden):
			c.JSON(http.StatusForbidden, httpdto.NewErrorResponse("not a participant", "FORBIDDEN"))
		case errors.Is(err, drift_errors.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("random conversations use the realtime channel", "INVALID_INPUT"))
		default:
			c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("message could not be saved", "INTERNAL_ERROR"))
		}
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(m))
}
