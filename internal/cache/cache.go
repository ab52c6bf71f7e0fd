// Package cache is a Redis-backed read-through cache: JSON values, TTL
// expiry, and prefix invalidation. Redis is never the source of truth
// here, so every failure degrades to a miss rather than an error.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrMiss = errors.New("cache: miss")

type Cache struct {
	rdb *redis.Client
	log *zap.SugaredLogger
	ttl time.Duration
}

func New(rdb *redis.Client, defaultTTL time.Duration, log *zap.SugaredLogger) *Cache {
	return &Cache{rdb: rdb, ttl: defaultTTL, log: log}
}

// Get decodes the cached value for key into dest. A miss or any Redis
// failure is logged and reported as ErrMiss; callers always fall through
// to the source of truth, per this cache's "failures are never fatal"
// contract.
func (c *Cache) Get(ctx context.Context, key string, dest any) error {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warnw("cache get failed", "key", key, "error", err)
		}
		return ErrMiss
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.log.Warnw("cache value corrupt, dropping", "key", key, "error", err)
		_ = c.rdb.Del(ctx, key).Err()
		return ErrMiss
	}
	return nil
}

// Set stores value under key with the cache's default TTL. Failures are
// logged and swallowed: a write-through miss just means the next read
// falls back to the source of truth.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	c.SetTTL(ctx, key, value, c.ttl)
}

func (c *Cache) SetTTL(ctx context.Context, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.log.Warnw("cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		c.log.Warnw("cache set failed", "key", key, "error", err)
	}
}

func (c *Cache) Delete(ctx context.Context, key string) {
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		c.log.Warnw("cache delete failed", "key", key, "error", err)
	}
}

// DeletePattern invalidates every key matching pattern (e.g. "product:*").
// Uses SCAN + pipelined DEL rather than KEYS, which would block Redis on a
// large keyspace.
func (c *Cache) DeletePattern(ctx context.Context, pattern string) {
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	pipe := c.rdb.Pipeline()
	pending := 0

	for iter.Next(ctx) {
		pipe.Del(ctx, iter.Val())
		pending++
		if pending >= 100 {
			if _, err := pipe.Exec(ctx); err != nil {
				c.log.Warnw("cache pattern delete failed", "pattern", pattern, "error", err)
			}
			pending = 0
		}
	}
	if err := iter.Err(); err != nil {
		c.log.Warnw("cache scan failed", "pattern", pattern, "error", err)
		return
	}
	if pending > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			c.log.Warnw("cache pattern delete failed", "pattern", pattern, "error", err)
		}
	}
}
