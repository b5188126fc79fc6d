package handler

import (
	"errors"
	"net/http"

	"driftchat/internal/services"
	"driftchat/internal/transport/httpdto"
	drift_errors "driftchat/pkg/errors"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type registerRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Identity string `json:"identity" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request body", "INVALID_INPUT"))
		return
	}

	resp, err := h.auth.Register(c.Request.Context(), services.RegisterInput{
		Email:       req.Email,
		Username:    req.Username,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		switch {
		case errors.Is(err, drift_errors.ErrAlreadyExists):
			c.JSON(http.StatusConflict, httpdto.NewErrorResponse("email or username already taken", "CONFLICT"))
		case errors.Is(err, drift_errors.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid registration details", "INVALID_INPUT"))
		default:
			c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("registration failed", "INTERNAL_ERROR"))
		}
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(resp))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request body", "INVALID_INPUT"))
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), services.LoginInput{
		Identity: req.Identity,
		Password: req.Password,
	})
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("invalid credentials", "UNAUTHORIZED"))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(resp))
}
