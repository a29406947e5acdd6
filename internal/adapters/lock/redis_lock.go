// Package lock implements the SharedLock component (B): a distributed named
// mutex over Redis using the SET NX PX / Lua compare-and-delete idiom, in the
// spirit of saurabh1e-entgo-microservices' redis client wrapper but original
// in its acquire/release composition since no pack repo carries a Redlock
// implementation.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "lock:"

// releaseScript deletes the key only if its value still matches the token
// presented, so a caller can never release a lock it does not hold (e.g.
// after its own lease already expired and someone else acquired it).
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`)

const pollInterval = 50 * time.Millisecond

type RedisLock struct {
	client *redis.Client
}

func New(client *redis.Client) *RedisLock {
	return &RedisLock{client: client}
}

// Acquire polls for up to 2*timeout, then holds the lease for timeout.
func (l *RedisLock) Acquire(ctx context.Context, name string, timeout time.Duration) (string, error) {
	key := keyPrefix + name
	token := uuid.NewString()
	deadline := time.Now().Add(2 * timeout)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, timeout).Result()
		if err != nil {
			return "", err
		}
		if ok {
			return token, nil
		}
		if time.Now().After(deadline) {
			return "", errors.New("lock: timed out waiting for " + name)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *RedisLock) Release(ctx context.Context, name, token string) error {
	key := keyPrefix + name
	n, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int64()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.New("lock: release of " + name + " did not match held token")
	}
	return nil
}

func (l *RedisLock) Locked(ctx context.Context, name string) (bool, error) {
	n, err := l.client.Exists(ctx, keyPrefix+name).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
