package handlers

import (
	"net/http"

	"signlearn-service/internal/middleware"
	"signlearn-service/internal/models"
	"signlearn-service/internal/services"

	"github.com/gin-gonic/gin"
)

type StoriesHandler struct {
	Responder
	stories *services.StoryService
}

func NewStoriesHandler(stories *services.StoryService, r Responder) *StoriesHandler {
	return &StoriesHandler{Responder: r, stories: stories}
}

func (h *StoriesHandler) List(c *gin.Context) {
	res, err := h.stories.List(c.Request.Context(), middleware.ActorID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, fallback(c, gin.H{"success": true, "stories": res.Stories}, res.Degraded))
}

func (h *StoriesHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "story")
	if !ok {
		return
	}
	story, err := h.stories.Get(c.Request.Context(), id, middleware.ActorID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "story": story})
}

func (h *StoriesHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req models.CreateStoryRequest
	if !h.bind(c, &req, false) {
		return
	}

	story, err := h.stories.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "story": story})
}

func (h *StoriesHandler) View(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "story")
	if !ok {
		return
	}
	res, err := h.stories.View(c.Request.Context(), actor, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "isViewed": res.Active, "viewsCount": res.Count})
}

func (h *StoriesHandler) Like(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "story")
	if !ok {
		return
	}
	res, err := h.stories.ToggleLike(c.Request.Context(), actor, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"isLiked":    res.Active,
		"likesCount": res.Count,
		"mirrored":   res.Mirrored,
	})
}

func (h *StoriesHandler) Delete(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "story")
	if !ok {
		return
	}
	if err := h.stories.Delete(c.Request.Context(), actor, id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "story deleted"})
}
