package handler

import (
	"errors"
	"net/http"

	"driftchat/internal/middleware"
	"driftchat/internal/services"
	"driftchat/internal/transport/httpdto"
	drift_errors "driftchat/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	profile, err := h.users.GetProfile(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("profile not found", "NOT_FOUND"))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(profile))
}

func (h *UserHandler) Settings(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	settings, err := h.users.GetSettings(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("settings unavailable", "INTERNAL_ERROR"))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(settings))
}

func (h *UserHandler) Block(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid user id", "INVALID_INPUT"))
		return
	}

	if err := h.users.Block(c.Request.Context(), userID, targetID); err != nil {
		switch {
		case errors.Is(err, drift_errors.ErrAlreadyExists):
			c.JSON(http.StatusConflict, httpdto.NewErrorResponse("user already blocked", "CONFLICT"))
		case errors.Is(err, drift_errors.ErrNotFound):
			c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("user not found", "NOT_FOUND"))
		case errors.Is(err, drift_errors.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("cannot block yourself", "INVALID_INPUT"))
		default:
			c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("block failed", "INTERNAL_ERROR"))
		}
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(nil))
}

func (h *UserHandler) Unblock(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid user id", "INVALID_INPUT"))
		return
	}

	if err := h.users.Unblock(c.Request.Context(), userID, targetID); err != nil {
		if errors.Is(err, drift_errors.ErrNotFound) {
			c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("block not found", "NOT_FOUND"))
			return
		}
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("unblock failed", "INTERNAL_ERROR"))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(nil))
}
