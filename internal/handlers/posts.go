package handlers

import (
	"net/http"

	"signlearn-service/internal/middleware"
	"signlearn-service/internal/models"
	"signlearn-service/internal/services"

	"github.com/gin-gonic/gin"
)

type PostsHandler struct {
	Responder
	posts *services.PostService
}

func NewPostsHandler(posts *services.PostService, r Responder) *PostsHandler {
	return &PostsHandler{Responder: r, posts: posts}
}

func (h *PostsHandler) List(c *gin.Context) {
	res, err := h.posts.List(c.Request.Context(), middleware.ActorID(c), queryInt(c, "page"), queryInt(c, "limit"))
	h.respondList(c, res, err)
}

func (h *PostsHandler) ListSaved(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	res, err := h.posts.ListSaved(c.Request.Context(), actor.ID, queryInt(c, "page"), queryInt(c, "limit"))
	h.respondList(c, res, err)
}

func (h *PostsHandler) respondList(c *gin.Context, res *services.PostList, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, fallback(c, gin.H{
		"success":    true,
		"posts":      res.Posts,
		"pagination": res.Page,
	}, res.Degraded))
}

func (h *PostsHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "post")
	if !ok {
		return
	}
	post, err := h.posts.Get(c.Request.Context(), id, middleware.ActorID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "post": post})
}

func (h *PostsHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req models.CreatePostRequest
	if !h.bind(c, &req, false) {
		return
	}

	post, err := h.posts.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "post": post})
}

func (h *PostsHandler) Update(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "post")
	if !ok {
		return
	}
	var req models.UpdatePostRequest
	if !h.bind(c, &req, false) {
		return
	}

	post, err := h.posts.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "post": post})
}

func (h *PostsHandler) Delete(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "post")
	if !ok {
		return
	}
	if err := h.posts.Delete(c.Request.Context(), actor, id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "post deleted"})
}

func (h *PostsHandler) Like(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "post")
	if !ok {
		return
	}
	res, err := h.posts.ToggleLike(c.Request.Context(), actor, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "isLiked": res.Active, "likesCount": res.Count})
}

func (h *PostsHandler) Save(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "post")
	if !ok {
		return
	}
	res, err := h.posts.ToggleSave(c.Request.Context(), actor, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"isSaved":    res.Active,
		"savesCount": res.Count,
		"mirrored":   res.Mirrored,
	})
}

func (h *PostsHandler) Comment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "post")
	if !ok {
		return
	}
	var req models.CommentRequest
	if !h.bind(c, &req, false) {
		return
	}

	res, err := h.posts.Comment(c.Request.Context(), actor, id, req.Text)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":       true,
		"comment":       res.Comment,
		"commentsCount": res.CommentsCount,
	})
}

func (h *PostsHandler) Share(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "post")
	if !ok {
		return
	}
	var req models.SharePostRequest
	if !h.bind(c, &req, true) {
		return
	}

	post, err := h.posts.Share(c.Request.Context(), actor, id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "post": post})
}
