package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bookkeeper/internal/domain"
)

//go:generate mockgen -destination=mocks/mock_interfaces.go -package=mocks github.com/iho/bookkeeper/internal/usecase ArchiveSink,SnapshotStore,Recorder

// CurrencyRepository defines data access for currencies.
type CurrencyRepository interface {
	GetByCode(ctx context.Context, code domain.CurrencyCode) (*domain.Currency, error)
	List(ctx context.Context) ([]*domain.Currency, error)
	Upsert(ctx context.Context, currency *domain.Currency) error
	// SetBase marks code as the only base currency, atomically.
	SetBase(ctx context.Context, code domain.CurrencyCode) error
	ClearBase(ctx context.Context) error
}

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByName(ctx context.Context, name domain.AccountName) (*domain.Account, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// JournalRepository defines data access for posted transactions.
type JournalRepository interface {
	Append(ctx context.Context, tx Transaction, transaction *domain.Transaction) error
	List(ctx context.Context, query domain.LedgerQuery) ([]*domain.Transaction, error)
	// LinesForAccount returns every posted line of account, oldest first.
	LinesForAccount(ctx context.Context, account domain.AccountName) ([]domain.PostedLine, error)
	// Lines returns every posted line with OccurredAt <= asOf.
	Lines(ctx context.Context, asOf time.Time) ([]domain.EntryLine, error)
	// Totals returns ledger-wide debit and credit sums per currency.
	Totals(ctx context.Context) (debits, credits map[domain.CurrencyCode]decimal.Decimal, err error)
}

// FXAuditRepository defines data access for the exchange-rate audit trail.
type FXAuditRepository interface {
	Append(ctx context.Context, event *domain.ExchangeRateEvent) error
	// List returns events newest first; an empty code means every currency.
	List(ctx context.Context, code domain.CurrencyCode, limit int) ([]*domain.ExchangeRateEvent, error)
	CountOlderThan(ctx context.Context, cutoff time.Time) (int, error)
	ListOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*domain.ExchangeRateEvent, error)
	DeleteByIDs(ctx context.Context, ids []int64) (int, error)
	DeleteByIDsTx(ctx context.Context, tx Transaction, ids []int64) (int, error)
}

// ArchiveSink receives audit events before they are deleted.
type ArchiveSink interface {
	Archive(ctx context.Context, events []*domain.ExchangeRateEvent) (int, error)
}

// TxArchiveSink is an ArchiveSink living in the audit database. Its copy
// commits or rolls back together with the delete of the same events.
type TxArchiveSink interface {
	ArchiveSink
	ArchiveTx(ctx context.Context, tx Transaction, events []*domain.ExchangeRateEvent) (int, error)
}

// BalanceSnapshot is the persisted form of a balance cache entry.
type BalanceSnapshot struct {
	Amount     decimal.Decimal
	LastSeenAt time.Time
	// Complete means no posted line was later than LastSeenAt when the
	// snapshot was built.
	Complete bool
	// Sequence is the highest journal sequence already reflected.
	Sequence int64
}

// SnapshotStore persists balance cache entries between processes. Missing
// snapshots are reported with ok == false, never as an error.
type SnapshotStore interface {
	Load(ctx context.Context, account domain.AccountName) (snap BalanceSnapshot, ok bool, err error)
	Save(ctx context.Context, account domain.AccountName, snap BalanceSnapshot) error
	Delete(ctx context.Context, account domain.AccountName) error
}

// Locker serializes work on a key, e.g. one currency's rate state.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(context.Context) error) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient storage failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Recorder receives engine metrics.
type Recorder interface {
	TransactionPosted(lines int)
	BalanceLookup(outcome string)
	RateUpdated(policy domain.PolicyMode)
	AuditRowsRemoved(mode domain.RetentionMode, rows int)
}

// NopRecorder discards metrics.
type NopRecorder struct{}

func (NopRecorder) TransactionPosted(int)                      {}
func (NopRecorder) BalanceLookup(string)                       {}
func (NopRecorder) RateUpdated(domain.PolicyMode)              {}
func (NopRecorder) AuditRowsRemoved(domain.RetentionMode, int) {}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
