package redis

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

func TestSnapshotStoreSaveLoad(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewSnapshotStore(client, time.Hour)
	ctx := context.Background()
	account := domain.MustAccountName("Assets:Cash")

	_, ok, err := store.Load(ctx, account)
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2025, 11, 11, 9, 0, 0, 123, time.UTC)
	snap := usecase.BalanceSnapshot{
		Amount:     decimal.RequireFromString("1234.567890123"),
		LastSeenAt: at,
		Complete:   true,
		Sequence:   42,
	}
	require.NoError(t, store.Save(ctx, account, snap))

	got, ok, err := store.Load(ctx, account)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, snap.Amount.Equal(got.Amount))
	assert.Equal(t, at, got.LastSeenAt)
	assert.True(t, got.Complete)
	assert.Equal(t, int64(42), got.Sequence)

	assert.Equal(t, time.Hour, mr.TTL(store.key(account)))
}

func TestSnapshotStoreExpiresAndDeletes(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewSnapshotStore(client, time.Minute)
	ctx := context.Background()
	account := domain.MustAccountName("Equity")

	require.NoError(t, store.Save(ctx, account, usecase.BalanceSnapshot{Amount: decimal.NewFromInt(5)}))
	mr.FastForward(2 * time.Minute)

	_, ok, err := store.Load(ctx, account)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(ctx, account, usecase.BalanceSnapshot{Amount: decimal.NewFromInt(5)}))
	require.NoError(t, store.Delete(ctx, account))
	assert.False(t, mr.Exists(store.key(account)))
}

func TestSnapshotStoreCorruptValue(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewSnapshotStore(client, 0)
	account := domain.MustAccountName("Assets:Cash")
	require.NoError(t, mr.Set(store.key(account), "not msgpack"))

	_, _, err := store.Load(context.Background(), account)
	assert.Error(t, err)
}

func TestSnapshotStoreBacksCachingBalanceService(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewSnapshotStore(client, time.Hour)
	ctx := context.Background()
	account := domain.MustAccountName("Assets:Cash")
	at := time.Date(2025, 11, 11, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, account, usecase.BalanceSnapshot{
		Amount: decimal.RequireFromString("10.50"), LastSeenAt: at, Complete: true, Sequence: 3,
	}))

	svc := usecase.NewCachingBalanceService(nil, store, usecase.NopRecorder{}, zeroLogger())
	balance, err := svc.GetBalance(ctx, account, at, false)
	require.NoError(t, err)
	assert.Equal(t, "10.5", balance.String())
}
