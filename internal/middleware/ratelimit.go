package middleware

import (
	"time"

	"signlearn-service/internal/apperr"
	"signlearn-service/internal/cache"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimit caps action per actor per window. It must run after
// Authenticate; anonymous requests are keyed by client IP.
func RateLimit(limiter cache.RateLimiter, action string, limit int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		subject := ActorID(c)
		if subject == "" {
			subject = "ip:" + c.ClientIP()
		}

		allowed, err := limiter.Allow(c.Request.Context(), action+":"+subject, limit, window)
		if err != nil {
			logger.Error("rate limit check failed", zap.Error(err))
		}
		if !allowed {
			Abort(c, apperr.RateLimited("rate limit exceeded"))
			return
		}
		c.Next()
	}
}
