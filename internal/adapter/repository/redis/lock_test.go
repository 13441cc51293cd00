package redis

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockManagerWithLockReleases(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	locks := NewLockManager(client, time.Second)
	ctx := context.Background()

	err := locks.WithLock(ctx, "fx:EUR", func(ctx context.Context) error {
		assert.True(t, mr.Exists(locks.prefix+"fx:EUR"))
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists(locks.prefix+"fx:EUR"))

	boom := errors.New("boom")
	err = locks.WithLock(ctx, "fx:EUR", func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists(locks.prefix+"fx:EUR"), "released after a failing callback")
}

func TestLockManagerSerializesHolders(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	locks := NewLockManager(client, 5*time.Second)
	locks.pollInterval = time.Millisecond

	var (
		wg      sync.WaitGroup
		active  int32
		overlap int32
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locks.WithLock(context.Background(), "fx:GBP", func(ctx context.Context) error {
				if atomic.AddInt32(&active, 1) > 1 {
					atomic.StoreInt32(&overlap, 1)
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&active, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Zero(t, atomic.LoadInt32(&overlap))
}

func TestLockManagerGivesUpWithContext(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	locks := NewLockManager(client, time.Minute)
	locks.pollInterval = time.Millisecond
	require.NoError(t, mr.Set(locks.prefix+"fx:JPY", "someone-else"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	called := false
	err := locks.WithLock(ctx, "fx:JPY", func(ctx context.Context) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)

	val, err := mr.Get(locks.prefix + "fx:JPY")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", val, "a foreign lock is never released")
}
