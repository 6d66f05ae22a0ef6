package cache

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	entry     Entry
	expiresAt time.Time
}

// Memory is an in-process TTL cache. Expired entries are dropped lazily on
// read and on every Set past the sweep threshold.
type Memory struct {
	mu    sync.Mutex
	now   Clock
	items map[string]memoryItem
}

const sweepThreshold = 1024

func NewMemory(now Clock) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{now: now, items: make(map[string]memoryItem)}
}

func (m *Memory) Get(_ context.Context, key string) (*Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[key]
	if !ok {
		return nil, false
	}
	if !m.now().Before(item.expiresAt) {
		delete(m.items, key)
		return nil, false
	}
	e := item.entry
	e.Body = append([]byte(nil), item.entry.Body...)
	return &e, true
}

func (m *Memory) Set(_ context.Context, key string, e *Entry, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if len(m.items) >= sweepThreshold {
		for k, item := range m.items {
			if !now.Before(item.expiresAt) {
				delete(m.items, k)
			}
		}
	}
	stored := *e
	stored.Body = append([]byte(nil), e.Body...)
	m.items[key] = memoryItem{entry: stored, expiresAt: now.Add(ttl)}
	return nil
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *Memory) Close() error { return nil }

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is the in-process RateLimiter. Expired windows are swept
// once the map reaches the sweep threshold.
type MemoryLimiter struct {
	mu      sync.Mutex
	now     Clock
	windows map[string]*window
}

func NewMemoryLimiter(now Clock) *MemoryLimiter {
	if now == nil {
		now = time.Now
	}
	return &MemoryLimiter{now: now, windows: make(map[string]*window)}
}

func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, span time.Duration) (bool, error) {
	if limit <= 0 {
		return true, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	w, ok := l.windows[key]
	if !ok && len(l.windows) >= sweepThreshold {
		for k, prev := range l.windows {
			if !now.Before(prev.resetAt) {
				delete(l.windows, k)
			}
		}
	}
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(span)}
		l.windows[key] = w
	}
	w.count++
	return w.count <= limit, nil
}
