package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotAcquired is returned when a lock stays held by another owner
// until the context ends.
var ErrLockNotAcquired = errors.New("lock not acquired")

// releaseScript deletes the lock only if the caller still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockManager implements usecase.Locker with Redis SET NX locks, so rate
// updates for one currency are serialized across processes.
type LockManager struct {
	client       *redis.Client
	prefix       string
	ttl          time.Duration
	pollInterval time.Duration
}

// NewLockManager creates a new LockManager. ttl bounds how long a crashed
// owner can block others.
func NewLockManager(client *redis.Client, ttl time.Duration) *LockManager {
	return &LockManager{
		client:       client,
		prefix:       "bookkeeper:lock:",
		ttl:          ttl,
		pollInterval: 20 * time.Millisecond,
	}
}

// WithLock runs fn while holding the lock on key.
func (m *LockManager) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	fullKey := m.prefix + key
	token := uuid.NewString()

	if err := m.acquire(ctx, fullKey, token); err != nil {
		return err
	}
	defer m.release(context.WithoutCancel(ctx), fullKey, token)

	return fn(ctx)
}

func (m *LockManager) acquire(ctx context.Context, key, token string) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = m.pollInterval
	b.MaxInterval = 10 * m.pollInterval
	b.MaxElapsedTime = 0

	return backoff.Retry(func() error {
		ok, err := m.client.SetNX(ctx, key, token, m.ttl).Result()
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrLockNotAcquired, key)
		}
		return nil
	}, backoff.WithContext(b, ctx))
}

func (m *LockManager) release(ctx context.Context, key, token string) {
	_ = releaseScript.Run(ctx, m.client, []string{key}, token).Err()
}
