package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

// snapshotRecord is the msgpack layout of a balance snapshot. The amount is
// kept as a decimal string so no precision is lost.
type snapshotRecord struct {
	Amount     string `msgpack:"a"`
	LastSeenAt int64  `msgpack:"t"`
	Complete   bool   `msgpack:"c"`
	Sequence   int64  `msgpack:"s"`
}

// SnapshotStore implements usecase.SnapshotStore using Redis.
type SnapshotStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewSnapshotStore creates a new SnapshotStore. A zero ttl keeps snapshots
// until they are deleted.
func NewSnapshotStore(client *redis.Client, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{
		client: client,
		prefix: "bookkeeper:balance:",
		ttl:    ttl,
	}
}

func (s *SnapshotStore) key(account domain.AccountName) string {
	return s.prefix + account.String()
}

// Load returns the snapshot of account, if any.
func (s *SnapshotStore) Load(ctx context.Context, account domain.AccountName) (usecase.BalanceSnapshot, bool, error) {
	raw, err := s.client.Get(ctx, s.key(account)).Bytes()
	if errors.Is(err, redis.Nil) {
		return usecase.BalanceSnapshot{}, false, nil
	}
	if err != nil {
		return usecase.BalanceSnapshot{}, false, err
	}

	var rec snapshotRecord
	if err := msgpack.Unmarshal(raw, &rec); err != nil {
		return usecase.BalanceSnapshot{}, false, fmt.Errorf("decode snapshot %s: %w", account, err)
	}

	amount, err := decimal.NewFromString(rec.Amount)
	if err != nil {
		return usecase.BalanceSnapshot{}, false, fmt.Errorf("decode snapshot %s: %w", account, err)
	}

	return usecase.BalanceSnapshot{
		Amount:     amount,
		LastSeenAt: time.Unix(0, rec.LastSeenAt).UTC(),
		Complete:   rec.Complete,
		Sequence:   rec.Sequence,
	}, true, nil
}

// Save stores snap for account, replacing any previous snapshot.
func (s *SnapshotStore) Save(ctx context.Context, account domain.AccountName, snap usecase.BalanceSnapshot) error {
	raw, err := msgpack.Marshal(snapshotRecord{
		Amount:     snap.Amount.String(),
		LastSeenAt: snap.LastSeenAt.UnixNano(),
		Complete:   snap.Complete,
		Sequence:   snap.Sequence,
	})
	if err != nil {
		return err
	}

	return s.client.Set(ctx, s.key(account), raw, s.ttl).Err()
}

// Delete removes the snapshot of account.
func (s *SnapshotStore) Delete(ctx context.Context, account domain.AccountName) error {
	return s.client.Del(ctx, s.key(account)).Err()
}
