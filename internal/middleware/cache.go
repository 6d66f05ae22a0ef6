package middleware

import (
	"bytes"
	"net/http"
	"time"

	"signlearn-service/internal/cache"
	"signlearn-service/internal/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type bodyWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// ResponseCache serves anonymous GET requests from store for ttl. Requests
// carrying credentials always reach the handler.
func ResponseCache(store cache.ResponseCache, ttl time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil || c.Request.Method != http.MethodGet || c.GetHeader("Authorization") != "" {
			c.Next()
			return
		}

		key := c.Request.URL.RequestURI()
		if e, ok := store.Get(c.Request.Context(), key); ok {
			metrics.ResponseCacheTotal.WithLabelValues("hit").Inc()
			c.Header("X-Cache", "HIT")
			c.Data(e.Status, e.ContentType, e.Body)
			c.Abort()
			return
		}
		metrics.ResponseCacheTotal.WithLabelValues("miss").Inc()

		w := &bodyWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = w
		c.Header("X-Cache", "MISS")
		c.Next()

		if w.Status() != http.StatusOK || IsDegraded(c) {
			return
		}
		entry := &cache.Entry{
			Status:      w.Status(),
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.body.Bytes(),
		}
		if err := store.Set(c.Request.Context(), key, entry, ttl); err != nil {
			logger.Warn("failed to cache response", zap.String("key", key), zap.Error(err))
		}
	}
}
