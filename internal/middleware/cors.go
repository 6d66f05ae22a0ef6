package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORS sets permissive headers on every response and answers preflight
// requests with an empty 200. origins is "*" or a comma separated list.
func CORS(origins string) gin.HandlerFunc {
	allowed := map[string]bool{}
	wildcard := origins == "" || origins == "*"
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed[o] = true
		}
	}

	return func(c *gin.Context) {
		origin := "*"
		if !wildcard {
			origin = ""
			if reqOrigin := c.GetHeader("Origin"); allowed[reqOrigin] {
				origin = reqOrigin
				c.Writer.Header().Add("Vary", "Origin")
			}
		}
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Admin-Key")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}
