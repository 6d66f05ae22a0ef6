package middleware

import (
	"signlearn-service/internal/apperr"
	"signlearn-service/internal/auth"

	"github.com/gin-gonic/gin"
)

const (
	actorKey    = "actor"
	degradedKey = "degraded"
)

// Abort ends the request with the error's status and message.
func Abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperr.KindOf(err).Status(), gin.H{
		"success": false,
		"error":   apperr.Message(err),
	})
}

// Authenticate resolves the request actor under opts.
func Authenticate(policy *auth.Policy, opts auth.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := policy.Authorize(c.Request.Context(), c.GetHeader("Authorization"), opts)
		if err != nil {
			Abort(c, err)
			return
		}
		if actor != nil {
			c.Set(actorKey, actor)
			if actor.Degraded {
				MarkDegraded(c)
			}
		}
		c.Next()
	}
}

// GetActor returns the authenticated actor, if any.
func GetActor(c *gin.Context) (*auth.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return nil, false
	}
	actor, ok := v.(*auth.Actor)
	return actor, ok && actor != nil
}

// ActorID is the canonical id of the caller, or "" for anonymous requests.
func ActorID(c *gin.Context) string {
	if actor, ok := GetActor(c); ok {
		return actor.ID
	}
	return ""
}

// MarkDegraded flags a response as served without the store; such
// responses are never cached.
func MarkDegraded(c *gin.Context) {
	c.Set(degradedKey, true)
}

func IsDegraded(c *gin.Context) bool {
	return c.GetBool(degradedKey)
}
