package redisad

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"castro_guide/internal/adapters/observability"
)

const cacheName = "redis"

// Cache stores JSON values under a key prefix.
type Cache struct {
	c      *redis.Client
	prefix string
}

func New(addr, pass string, db int) *Cache {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}), "guide:")
}

func NewWithClient(c *redis.Client, prefix string) *Cache { return &Cache{c: c, prefix: prefix} }

func (r *Cache) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }

func (r *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, err := r.c.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.ObserveCache(cacheName, "miss")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	observability.ObserveCache(cacheName, "hit")
	return true, json.Unmarshal(v, dst)
}

func (r *Cache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache %s: encode: %w", key, err)
	}
	observability.ObserveCache(cacheName, "set")
	return r.c.Set(ctx, r.prefix+key, b, time.Duration(ttlSec)*time.Second).Err()
}

func (r *Cache) Del(ctx context.Context, key string) error {
	observability.ObserveCache(cacheName, "del")
	return r.c.Del(ctx, r.prefix+key).Err()
}

func (r *Cache) Close() error { return r.c.Close() }
