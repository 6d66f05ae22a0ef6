package handlers

import (
	"net/http"

	"signlearn-service/internal/middleware"
	"signlearn-service/internal/models"
	"signlearn-service/internal/services"

	"github.com/gin-gonic/gin"
)

type SharedPostsHandler struct {
	Responder
	shared *services.SharedPostService
}

func NewSharedPostsHandler(shared *services.SharedPostService, r Responder) *SharedPostsHandler {
	return &SharedPostsHandler{Responder: r, shared: shared}
}

func (h *SharedPostsHandler) List(c *gin.Context) {
	res, err := h.shared.List(c.Request.Context(), middleware.ActorID(c), queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, fallback(c, gin.H{
		"success":     true,
		"sharedPosts": res.SharedPosts,
		"pagination":  res.Page,
	}, res.Degraded))
}

func (h *SharedPostsHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req models.CreateSharedPostRequest
	if !h.bind(c, &req, false) {
		return
	}
	sp, err := h.shared.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "sharedPost": sp})
}

func (h *SharedPostsHandler) Like(c *gin.Context)   { h.setLike(c, true) }
func (h *SharedPostsHandler) Unlike(c *gin.Context) { h.setLike(c, false) }
func (h *SharedPostsHandler) Save(c *gin.Context)   { h.setSave(c, true) }
func (h *SharedPostsHandler) Unsave(c *gin.Context) { h.setSave(c, false) }

func (h *SharedPostsHandler) setLike(c *gin.Context, liked bool) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "shared post")
	if !ok {
		return
	}
	res, err := h.shared.SetLike(c.Request.Context(), actor, id, liked)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "isLiked": res.Active, "likesCount": res.Count})
}

func (h *SharedPostsHandler) setSave(c *gin.Context, saved bool) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "shared post")
	if !ok {
		return
	}
	res, err := h.shared.SetSave(c.Request.Context(), actor, id, saved)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "isSaved": res.Active, "savesCount": res.Count})
}

func (h *SharedPostsHandler) Delete(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "shared post")
	if !ok {
		return
	}
	if err := h.shared.Delete(c.Request.Context(), actor, id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "shared post deleted"})
}
