package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry[V any] struct {
	value     V
	expiresAt time.Time
}

func (e *memoryEntry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryCache is an in-process Cache backed by a map. Expired entries are
// dropped lazily on read.
type MemoryCache[V any] struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry[V]
}

var _ Cache[string] = (*MemoryCache[string])(nil)

func NewMemoryCache[V any]() *MemoryCache[V] {
	return &MemoryCache[V]{
		entries: make(map[string]memoryEntry[V]),
	}
}

func (c *MemoryCache[V]) Get(_ context.Context, key string) (V, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, ErrCacheMiss
	}
	if entry.expired(time.Now()) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return zero, ErrCacheMiss
	}
	return entry.value, nil
}

func (c *MemoryCache[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	entry := memoryEntry[V]{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache[V]) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}
