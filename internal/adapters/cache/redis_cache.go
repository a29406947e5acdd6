// Package cache implements the Cache component (A) over Redis, following the
// namespaced-key style of saurabh1e-entgo-microservices/pkg/redis/client.go
// and the TTL'd whitelist/blacklist idioms of pkg/redis/token.go, generalized
// to the full get/set/list/increment/pattern-delete surface spec.md §4.A
// requires.
package cache

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"time"
)

// RedisCache implements ports.Cache over a *redis.Client.
type RedisCache struct {
	client *redis.Client
}

func New(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Delete removes every key matching any of the given patterns. A pattern
// with no glob metacharacter is deleted directly; others are resolved via
// SCAN (never KEYS, to avoid blocking the server on a large keyspace) before
// UNLINKing the matches.
func (c *RedisCache) Delete(ctx context.Context, patterns ...string) error {
	var toDelete []string
	for _, p := range patterns {
		if !hasGlobMeta(p) {
			toDelete = append(toDelete, p)
			continue
		}
		matched, err := c.scanKeys(ctx, p)
		if err != nil {
			return err
		}
		toDelete = append(toDelete, matched...)
	}
	if len(toDelete) == 0 {
		return nil
	}
	return c.client.Unlink(ctx, toDelete...).Err()
}

func (c *RedisCache) scanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		batch, next, err := c.client.Scan(ctx, cursor, pattern, 500).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}

func hasGlobMeta(s string) bool {
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']':
			return true
		}
	}
	return false
}

// SetList appends values onto the list at key, optionally (re)applying ttl
// within the same pipeline. It does not clear the existing list first:
// callers that need a replace should Delete the key before calling SetList.
func (c *RedisCache) SetList(ctx context.Context, key string, ttl time.Duration, values ...string) error {
	pipe := c.client.TxPipeline()
	if len(values) > 0 {
		args := make([]interface{}, len(values))
		for i, v := range values {
			args[i] = v
		}
		pipe.LPush(ctx, key, args...)
	}
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (c *RedisCache) GetList(ctx context.Context, key string) ([]string, error) {
	vals, err := c.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return vals, nil
}

// Discard removes every occurrence of value from the list at key.
func (c *RedisCache) Discard(ctx context.Context, key, value string) error {
	return c.client.LRem(ctx, key, 0, value).Err()
}

func (c *RedisCache) Exists(ctx context.Context, pattern string) (bool, error) {
	if !hasGlobMeta(pattern) {
		n, err := c.client.Exists(ctx, pattern).Result()
		return n > 0, err
	}
	keys, err := c.scanKeys(ctx, pattern)
	if err != nil {
		return false, err
	}
	return len(keys) > 0, nil
}

func (c *RedisCache) Keys(ctx context.Context, pattern string) ([]string, error) {
	return c.scanKeys(ctx, pattern)
}

func (c *RedisCache) Increment(ctx context.Context, key string, n int64) (int64, error) {
	return c.client.IncrBy(ctx, key, n).Result()
}

func (c *RedisCache) Decrement(ctx context.Context, key string, n int64) (int64, error) {
	return c.client.DecrBy(ctx, key, n).Result()
}

func (c *RedisCache) Clear(ctx context.Context) error {
	return c.client.FlushDB(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
