package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"signlearn-service/internal/cache"
	"signlearn-service/internal/repository"
	"signlearn-service/internal/storage"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// HealthHandler reports each backend. Only the store decides readiness;
// cache and media host are optional.
type HealthHandler struct {
	store   repository.Pinger
	cache   *cache.Redis
	storage *storage.Storage
}

func NewHealthHandler(store repository.Pinger, redis *cache.Redis, stor *storage.Storage) *HealthHandler {
	return &HealthHandler{store: store, cache: redis, storage: stor}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	var (
		mu     sync.Mutex
		checks = map[string]string{
			"database": "ok",
			"cache":    "memory",
			"storage":  "disabled",
		}
	)
	probe := func(name string, ping func(context.Context) error) func() error {
		return func() error {
			err := ping(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				checks[name] = err.Error()
			} else {
				checks[name] = "ok"
			}
			return nil
		}
	}

	// Probes record their outcome instead of failing the group.
	var g errgroup.Group
	g.Go(probe("database", h.store.Ping))
	if h.cache != nil {
		g.Go(probe("cache", h.cache.Ping))
	}
	if h.storage != nil {
		g.Go(probe("storage", h.storage.Ping))
	}
	g.Wait()

	healthy := checks["database"] == "ok"
	statusCode := http.StatusOK
	if !healthy {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, gin.H{
		"success": healthy,
		"status":  checks,
		"healthy": healthy,
	})
}
