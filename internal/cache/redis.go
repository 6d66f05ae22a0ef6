package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "signlearn:"

// Redis backs both the response cache and the rate limiter.
type Redis struct {
	client *redis.Client
}

func NewRedis(addr, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Redis{client: client}, nil
}

func (c *Redis) Get(ctx context.Context, key string) (*Entry, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, keyPrefix+"resp:"+key).Bytes()
	if err != nil {
		return nil, false
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false
	}
	return &e, true
}

func (c *Redis) Set(ctx context.Context, key string, e *Entry, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return ErrUnavailable
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, keyPrefix+"resp:"+key, data, ttl).Err()
}

// Allow fails open: a missing client or a Redis error lets the request through.
func (c *Redis) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if c == nil || c.client == nil || limit <= 0 {
		return true, nil
	}
	k := keyPrefix + "ratelimit:" + key

	count, err := c.client.Incr(ctx, k).Result()
	if err != nil {
		return true, err
	}

	if count == 1 {
		c.client.Expire(ctx, k, window)
	}

	return count <= int64(limit), nil
}

func (c *Redis) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return ErrUnavailable
	}
	return c.client.Ping(ctx).Err()
}

func (c *Redis) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
