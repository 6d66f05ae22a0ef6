package middleware

import (
	"signlearn-service/internal/apperr"
	"signlearn-service/internal/auth"

	"github.com/gin-gonic/gin"
)

const AdminKeyHeader = "X-Admin-Key"

// RequireAdmin guards catalog writes with a shared key checked against
// its bcrypt hash.
func RequireAdmin(keyHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(AdminKeyHeader)
		if key == "" {
			Abort(c, apperr.Unauthorized("admin key required"))
			return
		}
		if !auth.CheckAdminKey(keyHash, key) {
			Abort(c, apperr.Forbidden("invalid admin key"))
			return
		}
		c.Next()
	}
}
