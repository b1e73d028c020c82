package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the redis cache backend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// KeyPrefix namespaces all keys, e.g. "settlement:".
	KeyPrefix string
}

// RedisCache is a Cache backed by redis. Values are JSON-encoded.
type RedisCache[V any] struct {
	client *redis.Client
	prefix string
}

var _ Cache[string] = (*RedisCache[string])(nil)

func NewRedisCache[V any](opts *RedisOptions) *RedisCache[V] {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return &RedisCache[V]{client: client, prefix: opts.KeyPrefix}
}

func (c *RedisCache[V]) key(key string) string {
	return c.prefix + key
}

func (c *RedisCache[V]) Get(ctx context.Context, key string) (V, error) {
	var zero V

	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return zero, ErrCacheMiss
		}
		return zero, err
	}

	var value V
	if err := json.Unmarshal(raw, &value); err != nil {
		return zero, err
	}
	return value, nil
}

func (c *RedisCache[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(key), raw, ttl).Err()
}

func (c *RedisCache[V]) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.key(key)).Err()
}
