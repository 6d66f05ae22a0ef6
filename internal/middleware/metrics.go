package middleware

import (
	"strconv"
	"time"

	"signlearn-service/internal/metrics"

	"github.com/gin-gonic/gin"
)

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}

		metrics.HTTPRequestsTotal.WithLabelValues(
			route,
			c.Request.Method,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(route, c.Request.Method).
			Observe(time.Since(start).Seconds())

		if IsDegraded(c) {
			metrics.DegradedRequestsTotal.WithLabelValues(route).Inc()
		}
	}
}
