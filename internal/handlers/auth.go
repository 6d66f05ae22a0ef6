package handlers

import (
	"net/http"

	"signlearn-service/internal/auth"
	"signlearn-service/internal/models"
	"signlearn-service/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	Responder
	users  *services.UserService
	policy *auth.Policy
}

func NewAuthHandler(users *services.UserService, policy *auth.Policy, r Responder) *AuthHandler {
	return &AuthHandler{Responder: r, users: users, policy: policy}
}

func (h *AuthHandler) Verify(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req models.VerifyRequest
	if !h.bind(c, &req, true) {
		return
	}

	res, err := h.users.Verify(c.Request.Context(), actor, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.Logger.Info("user verified", zap.String("subject", actor.ID), zap.Bool("persisted", res.Persisted))

	c.JSON(http.StatusOK, degraded(c, gin.H{
		"success":  true,
		"user":     res.User,
		"progress": res.Progress,
	}, res.Persisted))
}

// Me returns the stored profile, or one derived from the identity when the
// caller has never verified.
func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if actor.Profile == nil {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"user":    h.policy.Synthesize(&actor.Identity),
			"exists":  false,
		})
		return
	}
	c.JSON(http.StatusOK, fallback(c, gin.H{
		"success": true,
		"user":    actor.Profile,
		"exists":  !actor.Degraded,
	}, actor.Degraded))
}

func (h *AuthHandler) UpdateCoins(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req models.UpdateCoinsRequest
	if !h.bind(c, &req, false) {
		return
	}
	h.respondWrite(c, "coins updated")(h.users.SetCoins(c.Request.Context(), actor, *req.Coins))
}

func (h *AuthHandler) AddCoins(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req models.AmountRequest
	if !h.bind(c, &req, false) {
		return
	}
	h.respondWrite(c, "coins added")(h.users.AddCoins(c.Request.Context(), actor, req.Amount))
}

func (h *AuthHandler) SubtractCoins(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req models.AmountRequest
	if !h.bind(c, &req, false) {
		return
	}
	h.respondWrite(c, "coins subtracted")(h.users.SubtractCoins(c.Request.Context(), actor, req.Amount))
}

func (h *AuthHandler) CompleteChallenge(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	h.respondWrite(c, "challenge completed")(h.users.CompleteChallenge(c.Request.Context(), actor))
}

func (h *AuthHandler) respondWrite(c *gin.Context, message string) func(*services.UserWrite, error) {
	return func(res *services.UserWrite, err error) {
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, degraded(c, gin.H{
			"success":             true,
			"message":             message,
			"user":                res.User,
			"coins":               res.User.Coins,
			"challengesCompleted": res.User.ChallengesCompleted,
		}, res.Persisted))
	}
}

func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if err := h.users.DeleteAccount(c.Request.Context(), actor); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "account deleted"})
}
