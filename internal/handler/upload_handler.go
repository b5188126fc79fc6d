package handler

import (
	"fmt"
	"net/http"
	"path"
	"time"

	"driftchat/internal/middleware"
	"driftchat/internal/storage"
	"driftchat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UploadHandler struct {
	s3 *storage.Client
}

func NewUploadHandler(s3 *storage.Client) *UploadHandler {
	return &UploadHandler{s3: s3}
}

type uploadRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	SizeBytes   int64  `json:"size_bytes"`
}

type uploadResponse struct {
	UploadURL string            `json:"upload_url"`
	Headers   map[string]string `json:"headers"`
	FileURL   string            `json:"file_url"`
}

// Presign returns a presigned PUT URL plus the stable public URL the client
// stores on the message once the upload completes.
func (h *UploadHandler) Presign(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	if h.s3 == nil {
		c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse("uploads disabled", "SERVICE_UNAVAILABLE"))
		return
	}

	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request body", "INVALID_INPUT"))
		return
	}

	key := fmt.Sprintf("media/%s/%d-%s%s",
		userID, time.Now().UnixNano(), uuid.New().String()[:8], path.Ext(req.Filename))

	uploadURL, headers, err := h.s3.PresignPut(c.Request.Context(), key, req.ContentType, req.SizeBytes)
	if err != nil {
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("could not create upload url", "INTERNAL_ERROR"))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(uploadResponse{
		UploadURL: uploadURL,
		Headers:   headers,
		FileURL:   h.s3.FileURL(key),
	}))
}
