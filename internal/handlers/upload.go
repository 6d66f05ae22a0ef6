package handlers

import (
	"net/http"

	"signlearn-service/internal/apperr"
	"signlearn-service/internal/models"
	"signlearn-service/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UploadHandler issues presigned PUT URLs on the media host. A nil storage
// answers 503.
type UploadHandler struct {
	Responder
	storage *storage.Storage
}

func NewUploadHandler(stor *storage.Storage, r Responder) *UploadHandler {
	return &UploadHandler{Responder: r, storage: stor}
}

func (h *UploadHandler) GetPresignedURL(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req models.PresignedUploadRequest
	if !h.bind(c, &req, false) {
		return
	}
	if !storage.AllowedContentType(req.ContentType) {
		h.fail(c, apperr.InvalidInput("content type "+req.ContentType+" not allowed"))
		return
	}
	if h.storage == nil {
		h.fail(c, apperr.Wrap(apperr.KindUnavailable, "media uploads are not configured", nil))
		return
	}

	mediaKey := storage.ObjectKey(actor.ID, req.FileName)
	url, err := h.storage.GeneratePresignedUploadURL(c.Request.Context(), mediaKey, req.ContentType)
	if err != nil {
		h.fail(c, apperr.Unavailable(err))
		return
	}
	h.Logger.Info("presigned URL generated", zap.String("media_key", mediaKey), zap.String("actor_id", actor.ID))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"upload": models.PresignedUploadResponse{
			UploadURL: url,
			MediaKey:  mediaKey,
			MediaURL:  h.storage.GetObjectURL(mediaKey),
		},
		"maxSize": storage.MaxUploadSize,
	})
}
