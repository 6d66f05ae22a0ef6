// Package cache holds the short-lived response cache and the per-actor
// rate limiter. Both have an in-process and a Redis backend.
package cache

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL is how long a cached GET response is served.
const DefaultTTL = 30 * time.Second

var ErrUnavailable = errors.New("cache not available")

// Entry is a captured HTTP response.
type Entry struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

type ResponseCache interface {
	Get(ctx context.Context, key string) (*Entry, bool)
	Set(ctx context.Context, key string, e *Entry, ttl time.Duration) error
	Close() error
}

// RateLimiter counts actions per key in fixed windows.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Clock is injected so expiry is testable.
type Clock func() time.Time
