package cache

import (
	"context"
	"errors"
	"time"
)

const (
	RedisBackend  = "redis"
	MemoryBackend = "memory"
)

var ErrCacheMiss = errors.New("cache: key not found")

// Cache is a read-through cache for derived market data such as odds and
// pool state. It is never authoritative: every entry can be rebuilt from the
// database, and writers invalidate on every reserve mutation.
type Cache[V any] interface {
	// Get returns the value or ErrCacheMiss.
	Get(ctx context.Context, key string) (V, error)
	// Set stores value under key, with TTL. Zero ttl = no expiration.
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

func NewCache[V any](backend string, opts *RedisOptions) Cache[V] {
	switch backend {
	case RedisBackend:
		return NewRedisCache[V](opts)
	case MemoryBackend:
		return NewMemoryCache[V]()
	default:
		panic("unknown cache backend: " + backend)
	}
}
