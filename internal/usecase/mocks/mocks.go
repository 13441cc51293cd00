package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

// MockCurrencyRepository is an in-memory CurrencyRepository.
type MockCurrencyRepository struct {
	mu         sync.RWMutex
	currencies map[domain.CurrencyCode]*domain.Currency

	GetByCodeFunc func(ctx context.Context, code domain.CurrencyCode) (*domain.Currency, error)
	ListFunc      func(ctx context.Context) ([]*domain.Currency, error)
	UpsertFunc    func(ctx context.Context, currency *domain.Currency) error
	SetBaseFunc   func(ctx context.Context, code domain.CurrencyCode) error
}

func NewMockCurrencyRepository(currencies ...*domain.Currency) *MockCurrencyRepository {
	m := &MockCurrencyRepository{currencies: make(map[domain.CurrencyCode]*domain.Currency)}
	for _, c := range currencies {
		m.currencies[c.Code] = c
	}
	return m
}

func (m *MockCurrencyRepository) GetByCode(ctx context.Context, code domain.CurrencyCode) (*domain.Currency, error) {
	if m.GetByCodeFunc != nil {
		return m.GetByCodeFunc(ctx, code)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.currencies[code]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, domain.NewDomainError(domain.ErrCurrencyNotFound, string(code), "unknown currency")
}

func (m *MockCurrencyRepository) List(ctx context.Context) ([]*domain.Currency, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Currency, 0, len(m.currencies))
	for _, c := range m.currencies {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *MockCurrencyRepository) Upsert(ctx context.Context, currency *domain.Currency) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, currency)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *currency
	m.currencies[currency.Code] = &cp
	return nil
}

func (m *MockCurrencyRepository) SetBase(ctx context.Context, code domain.CurrencyCode) error {
	if m.SetBaseFunc != nil {
		return m.SetBaseFunc(ctx, code)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.currencies[code]; !ok {
		return domain.NewDomainError(domain.ErrCurrencyNotFound, string(code), "unknown currency")
	}
	for _, c := range m.currencies {
		c.IsBase = c.Code == code
		if c.IsBase {
			c.RateToBase = nil
		}
	}
	return nil
}

func (m *MockCurrencyRepository) ClearBase(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.currencies {
		c.IsBase = false
	}
	return nil
}

// MockAccountRepository is an in-memory AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	CreateFunc    func(ctx context.Context, account *domain.Account) error
	GetByNameFunc func(ctx context.Context, name domain.AccountName) (*domain.Account, error)
	ListFunc      func(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[account.FullName.String()]; ok {
		return domain.NewDomainError(domain.ErrDuplicateAccount, account.FullName.String(), "account already exists")
	}
	m.accounts[account.FullName.String()] = account
	return nil
}

func (m *MockAccountRepository) GetByName(ctx context.Context, name domain.AccountName) (*domain.Account, error) {
	if m.GetByNameFunc != nil {
		return m.GetByNameFunc(ctx, name)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[name.String()]; ok {
		return acc, nil
	}
	return nil, domain.NewDomainError(domain.ErrAccountNotFound, name.String(), "unknown account")
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	accounts := make([]*domain.Account, 0, len(m.accounts))
	for _, acc := range m.accounts {
		accounts = append(accounts, acc)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].FullName.String() < accounts[j].FullName.String() })
	if offset >= len(accounts) {
		return []*domain.Account{}, nil
	}
	accounts = accounts[offset:]
	if limit < len(accounts) {
		accounts = accounts[:limit]
	}
	return accounts, nil
}

// Len reports the number of stored accounts.
func (m *MockAccountRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.accounts)
}

// MockJournalRepository is an in-memory JournalRepository.
type MockJournalRepository struct {
	mu  sync.RWMutex
	txs []*domain.Transaction
	seq int64

	AppendFunc          func(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error
	LinesForAccountFunc func(ctx context.Context, account domain.AccountName) ([]domain.PostedLine, error)
	TotalsFunc          func(ctx context.Context) (map[domain.CurrencyCode]decimal.Decimal, map[domain.CurrencyCode]decimal.Decimal, error)

	LinesForAccountCalls int
}

func NewMockJournalRepository() *MockJournalRepository {
	return &MockJournalRepository{}
}

func (m *MockJournalRepository) Append(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, tx, transaction)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	transaction.Sequence = m.seq
	m.txs = append(m.txs, transaction)
	return nil
}

func (m *MockJournalRepository) List(ctx context.Context, query domain.LedgerQuery) ([]*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return query.Apply(m.txs), nil
}

func (m *MockJournalRepository) LinesForAccount(ctx context.Context, account domain.AccountName) ([]domain.PostedLine, error) {
	m.mu.Lock()
	m.LinesForAccountCalls++
	m.mu.Unlock()

	if m.LinesForAccountFunc != nil {
		return m.LinesForAccountFunc(ctx, account)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return domain.LinesFor(m.txs, account), nil
}

func (m *MockJournalRepository) Lines(ctx context.Context, asOf time.Time) ([]domain.EntryLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.EntryLine
	for _, tx := range m.txs {
		if tx.OccurredAt.After(asOf) {
			continue
		}
		out = append(out, tx.Lines()...)
	}
	return out, nil
}

func (m *MockJournalRepository) Totals(ctx context.Context) (map[domain.CurrencyCode]decimal.Decimal, map[domain.CurrencyCode]decimal.Decimal, error) {
	if m.TotalsFunc != nil {
		return m.TotalsFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	debits := make(map[domain.CurrencyCode]decimal.Decimal)
	credits := make(map[domain.CurrencyCode]decimal.Decimal)
	for _, tx := range m.txs {
		for _, l := range tx.Lines() {
			if l.Side() == domain.Debit {
				debits[l.Currency()] = debits[l.Currency()].Add(l.Amount())
			} else {
				credits[l.Currency()] = credits[l.Currency()].Add(l.Amount())
			}
		}
	}
	return debits, credits, nil
}

// Add stores a transaction directly, bypassing use cases.
func (m *MockJournalRepository) Add(tx *domain.Transaction) {
	_ = m.Append(context.Background(), nil, tx)
}

// MockFXAuditRepository is an in-memory FXAuditRepository.
type MockFXAuditRepository struct {
	mu     sync.RWMutex
	events []*domain.ExchangeRateEvent
	nextID int64

	DeleteByIDsFunc func(ctx context.Context, ids []int64) (int, error)
}

func NewMockFXAuditRepository() *MockFXAuditRepository {
	return &MockFXAuditRepository{}
}

func (m *MockFXAuditRepository) Append(ctx context.Context, event *domain.ExchangeRateEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	event.ID = m.nextID
	cp := *event
	m.events = append(m.events, &cp)
	return nil
}

func (m *MockFXAuditRepository) List(ctx context.Context, code domain.CurrencyCode, limit int) ([]*domain.ExchangeRateEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.ExchangeRateEvent
	for _, e := range m.events {
		if code == "" || e.Code == code {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockFXAuditRepository) older(cutoff time.Time) []*domain.ExchangeRateEvent {
	var out []*domain.ExchangeRateEvent
	for _, e := range m.events {
		if e.OccurredAt.Before(cutoff) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out
}

func (m *MockFXAuditRepository) CountOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.older(cutoff)), nil
}

func (m *MockFXAuditRepository) ListOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*domain.ExchangeRateEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.older(cutoff)
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockFXAuditRepository) DeleteByIDs(ctx context.Context, ids []int64) (int, error) {
	if m.DeleteByIDsFunc != nil {
		return m.DeleteByIDsFunc(ctx, ids)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := m.events[:0]
	n := 0
	for _, e := range m.events {
		if drop[e.ID] {
			n++
			continue
		}
		kept = append(kept, e)
	}
	m.events = kept
	return n, nil
}

// Len reports the number of stored events.
func (m *MockFXAuditRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}

func (m *MockFXAuditRepository) DeleteByIDsTx(ctx context.Context, tx usecase.Transaction, ids []int64) (int, error) {
	return m.DeleteByIDs(ctx, ids)
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%d", m.counter)
}

// MockRetrier runs the operation once.
type MockRetrier struct{}

func (MockRetrier) Retry(ctx context.Context, operation func() error) error {
	return operation()
}

// MockLocker runs fn under one process-wide mutex.
type MockLocker struct {
	mu   sync.Mutex
	Keys []string
}

func (m *MockLocker) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Keys = append(m.Keys, key)
	return fn(ctx)
}

// FixedClock always returns At.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }

// MemorySnapshotStore is an in-memory SnapshotStore that can be shared by
// several balance services.
type MemorySnapshotStore struct {
	mu    sync.Mutex
	snaps map[string]usecase.BalanceSnapshot
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{snaps: make(map[string]usecase.BalanceSnapshot)}
}

func (m *MemorySnapshotStore) Load(ctx context.Context, account domain.AccountName) (usecase.BalanceSnapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.snaps[account.String()]
	return snap, ok, nil
}

func (m *MemorySnapshotStore) Save(ctx context.Context, account domain.AccountName, snap usecase.BalanceSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[account.String()] = snap
	return nil
}

func (m *MemorySnapshotStore) Delete(ctx context.Context, account domain.AccountName) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snaps, account.String())
	return nil
}
