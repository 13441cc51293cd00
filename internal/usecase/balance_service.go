package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/bookkeeper/internal/domain"
)

// Balance lookup outcomes reported to the Recorder.
const (
	BalanceHit       = "hit"
	BalanceRecompute = "recompute"
	BalanceDirect    = "direct"
)

// BalanceService answers account balances as of a point in time.
type BalanceService interface {
	// ProcessTransaction folds a committed transaction into any cached state.
	ProcessTransaction(ctx context.Context, tx *domain.Transaction) error
	// GetBalance returns the signed balance (debits positive) of account
	// over every line with OccurredAt <= asOf.
	GetBalance(ctx context.Context, account domain.AccountName, asOf time.Time, recompute bool) (decimal.Decimal, error)
}

// DirectBalanceService aggregates the journal on every call. It keeps no
// state and is always correct.
type DirectBalanceService struct {
	journal  JournalRepository
	recorder Recorder
}

// NewDirectBalanceService creates a new DirectBalanceService.
func NewDirectBalanceService(journal JournalRepository, recorder Recorder) *DirectBalanceService {
	return &DirectBalanceService{journal: journal, recorder: recorder}
}

// ProcessTransaction is a no-op: there is nothing to keep up to date.
func (s *DirectBalanceService) ProcessTransaction(ctx context.Context, tx *domain.Transaction) error {
	return nil
}

// GetBalance scans the account's lines. recompute is irrelevant here.
func (s *DirectBalanceService) GetBalance(ctx context.Context, account domain.AccountName, asOf time.Time, recompute bool) (decimal.Decimal, error) {
	at, err := domain.NormalizeTime(asOf, "as_of")
	if err != nil {
		return decimal.Zero, err
	}

	lines, err := s.journal.LinesForAccount(ctx, account)
	if err != nil {
		return decimal.Zero, err
	}

	s.recorder.BalanceLookup(BalanceDirect)
	balance, _ := domain.BalanceAsOf(lines, at)
	return balance, nil
}

type balanceEntry struct {
	mu         sync.Mutex
	loaded     bool
	amount     decimal.Decimal
	lastSeenAt time.Time
	complete   bool
	// sequence is the highest journal sequence seen by the last scan.
	// Transactions above it are folded in by ProcessTransaction, once each.
	sequence int64
}

// CachingBalanceService keeps one running balance per account. Entries are
// loaded on the first query and then maintained by ProcessTransaction.
// Each entry has its own lock, so different accounts never contend.
//
// An entry holds the exact balance at lastSeenAt. It is complete when no
// posted line was later than lastSeenAt; only complete entries answer
// queries for later instants without touching the journal.
type CachingBalanceService struct {
	journal   JournalRepository
	snapshots SnapshotStore
	recorder  Recorder
	logger    zerolog.Logger

	mu      sync.Mutex
	entries map[string]*balanceEntry
}

// NewCachingBalanceService creates a new CachingBalanceService. Pass
// NopSnapshotStore{} when no persistent cache row is available.
func NewCachingBalanceService(journal JournalRepository, snapshots SnapshotStore, recorder Recorder, logger zerolog.Logger) *CachingBalanceService {
	return &CachingBalanceService{
		journal:   journal,
		snapshots: snapshots,
		recorder:  recorder,
		logger:    logger.With().Str("component", "balance_cache").Logger(),
		entries:   make(map[string]*balanceEntry),
	}
}

func (s *CachingBalanceService) entry(account domain.AccountName) *balanceEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[account.String()]
	if !ok {
		e = &balanceEntry{amount: decimal.Zero}
		s.entries[account.String()] = e
	}
	return e
}

// ProcessTransaction applies tx to every account it touches. An account
// with no loaded entry in this process has its shared snapshot dropped, so
// that the next reader, in any process, rebuilds it from the journal.
func (s *CachingBalanceService) ProcessTransaction(ctx context.Context, tx *domain.Transaction) error {
	deltas := make(map[string]decimal.Decimal)
	names := make(map[string]domain.AccountName)
	for _, l := range tx.Lines() {
		key := l.Account().String()
		if _, ok := deltas[key]; !ok {
			deltas[key] = decimal.Zero
			names[key] = l.Account()
		}
		deltas[key] = deltas[key].Add(l.Signed())
	}

	var errs []error
	for key, delta := range deltas {
		if err := s.apply(ctx, names[key], s.entry(names[key]), tx, delta); err != nil {
			errs = append(errs, fmt.Errorf("drop snapshot of %s: %w", key, err))
		}
	}

	return errors.Join(errs...)
}

func (s *CachingBalanceService) apply(ctx context.Context, account domain.AccountName, e *balanceEntry, tx *domain.Transaction, delta decimal.Decimal) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Another process may hold a snapshot that now trails the journal.
	if !e.loaded {
		return s.snapshots.Delete(ctx, account)
	}

	// Already reflected by the last journal scan.
	if tx.Sequence != 0 && tx.Sequence <= e.sequence {
		return nil
	}

	switch {
	case !tx.OccurredAt.After(e.lastSeenAt):
		e.amount = e.amount.Add(delta)
	case e.complete:
		e.amount = e.amount.Add(delta)
		e.lastSeenAt = tx.OccurredAt
	default:
		// The entry is pinned to a past instant; later lines are not folded
		// in until the next recompute.
		return nil
	}

	s.persist(ctx, account, e)
	return nil
}

// GetBalance returns the cached amount when asOf is at or past the entry's
// horizon, and rebuilds the entry from the journal otherwise.
func (s *CachingBalanceService) GetBalance(ctx context.Context, account domain.AccountName, asOf time.Time, recompute bool) (decimal.Decimal, error) {
	at, err := domain.NormalizeTime(asOf, "as_of")
	if err != nil {
		return decimal.Zero, err
	}

	e := s.entry(account)
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.loaded {
		s.restore(ctx, account, e)
	}

	if !recompute && e.loaded && e.fresh(at) {
		s.recorder.BalanceLookup(BalanceHit)
		return e.amount, nil
	}

	lines, err := s.journal.LinesForAccount(ctx, account)
	if err != nil {
		return decimal.Zero, err
	}

	balance, later := domain.BalanceAsOf(lines, at)

	var seq int64
	for _, pl := range lines {
		if pl.Sequence > seq {
			seq = pl.Sequence
		}
	}

	e.amount = balance
	e.lastSeenAt = at
	e.complete = !later
	e.sequence = seq
	e.loaded = true

	s.recorder.BalanceLookup(BalanceRecompute)
	s.logger.Debug().
		Str("account", account.String()).
		Time("as_of", at).
		Bool("complete", e.complete).
		Msg("balance recomputed")

	s.persist(ctx, account, e)
	return balance, nil
}

func (e *balanceEntry) fresh(at time.Time) bool {
	if at.Equal(e.lastSeenAt) {
		return true
	}
	return e.complete && at.After(e.lastSeenAt)
}

func (s *CachingBalanceService) restore(ctx context.Context, account domain.AccountName, e *balanceEntry) {
	snap, ok, err := s.snapshots.Load(ctx, account)
	if err != nil {
		s.logger.Warn().Err(err).Str("account", account.String()).Msg("balance snapshot unavailable")
		return
	}
	if !ok {
		return
	}

	e.amount = snap.Amount
	e.lastSeenAt = snap.LastSeenAt.UTC()
	e.complete = snap.Complete
	e.sequence = snap.Sequence
	e.loaded = true
}

func (s *CachingBalanceService) persist(ctx context.Context, account domain.AccountName, e *balanceEntry) {
	err := s.snapshots.Save(ctx, account, BalanceSnapshot{
		Amount:     e.amount,
		LastSeenAt: e.lastSeenAt,
		Complete:   e.complete,
		Sequence:   e.sequence,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("account", account.String()).Msg("failed to persist balance snapshot")
		// The stored row may now trail the journal.
		if err := s.snapshots.Delete(ctx, account); err != nil {
			s.logger.Warn().Err(err).Str("account", account.String()).Msg("failed to drop balance snapshot")
		}
	}
}

// NopSnapshotStore stores nothing.
type NopSnapshotStore struct{}

func (NopSnapshotStore) Load(context.Context, domain.AccountName) (BalanceSnapshot, bool, error) {
	return BalanceSnapshot{}, false, nil
}

func (NopSnapshotStore) Save(context.Context, domain.AccountName, BalanceSnapshot) error {
	return nil
}

func (NopSnapshotStore) Delete(context.Context, domain.AccountName) error {
	return nil
}
