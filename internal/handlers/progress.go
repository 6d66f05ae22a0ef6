package handlers

import (
	"net/http"

	"signlearn-service/internal/models"
	"signlearn-service/internal/services"

	"github.com/gin-gonic/gin"
)

type ProgressHandler struct {
	Responder
	progress *services.ProgressService
}

func NewProgressHandler(progress *services.ProgressService, r Responder) *ProgressHandler {
	return &ProgressHandler{Responder: r, progress: progress}
}

func (h *ProgressHandler) Get(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	res, err := h.progress.Get(c.Request.Context(), actor)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, fallback(c, gin.H{"success": true, "progress": res.Progress}, !res.Persisted))
}

func (h *ProgressHandler) AddCoins(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req models.AmountRequest
	if !h.bind(c, &req, false) {
		return
	}
	h.respond(c)(h.progress.AddCoins(c.Request.Context(), actor, req.Amount))
}

func (h *ProgressHandler) IncrementStreak(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	h.respond(c)(h.progress.IncrementStreak(c.Request.Context(), actor))
}

func (h *ProgressHandler) ResetStreak(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	h.respond(c)(h.progress.ResetStreak(c.Request.Context(), actor))
}

func (h *ProgressHandler) AddLearnedSign(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req models.LearnedSignRequest
	if !h.bind(c, &req, false) {
		return
	}
	h.respond(c)(h.progress.AddLearnedSign(c.Request.Context(), actor, req.SignID))
}

func (h *ProgressHandler) respond(c *gin.Context) func(*services.ProgressResult, error) {
	return func(res *services.ProgressResult, err error) {
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, degraded(c, gin.H{"success": true, "progress": res.Progress}, res.Persisted))
	}
}
