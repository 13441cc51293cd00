package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/bookkeeper/internal/domain"
)

// TransactionUseCase posts and lists journal transactions.
type TransactionUseCase struct {
	txManager    TransactionManager
	journalRepo  JournalRepository
	accountRepo  AccountRepository
	currencyRepo CurrencyRepository
	balances     BalanceService
	retrier      Retrier
	idGen        IDGenerator
	clock        Clock
	precision    domain.Precision
	recorder     Recorder
	logger       zerolog.Logger
}

// NewTransactionUseCase creates a new TransactionUseCase.
func NewTransactionUseCase(
	txManager TransactionManager,
	journalRepo JournalRepository,
	accountRepo AccountRepository,
	currencyRepo CurrencyRepository,
	balances BalanceService,
	retrier Retrier,
	idGen IDGenerator,
	clock Clock,
	precision domain.Precision,
	recorder Recorder,
	logger zerolog.Logger,
) *TransactionUseCase {
	return &TransactionUseCase{
		txManager:    txManager,
		journalRepo:  journalRepo,
		accountRepo:  accountRepo,
		currencyRepo: currencyRepo,
		balances:     balances,
		retrier:      retrier,
		idGen:        idGen,
		clock:        clock,
		precision:    precision,
		recorder:     recorder,
		logger:       logger.With().Str("component", "journal").Logger(),
	}
}

// PostTransactionInput represents input for posting a transaction.
type PostTransactionInput struct {
	OccurredAt  *time.Time
	Description string
	Metadata    map[string]any
	Lines       []domain.EntryLineInput
}

// PostTransaction validates and appends a balanced transaction, then feeds
// it to the balance service.
func (uc *TransactionUseCase) PostTransaction(ctx context.Context, input PostTransactionInput) (*domain.Transaction, error) {
	occurredAt := uc.clock.Now()
	if input.OccurredAt != nil {
		occurredAt = *input.OccurredAt
	}

	lines := make([]domain.EntryLine, 0, len(input.Lines))
	for _, in := range input.Lines {
		line, err := domain.NewEntryLine(in, uc.precision)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	tx, err := domain.NewTransaction(occurredAt, input.Description, input.Metadata, lines)
	if err != nil {
		return nil, err
	}

	if err := uc.checkReferences(ctx, tx); err != nil {
		return nil, err
	}

	tx.ID = uc.idGen.Generate()

	err = uc.retrier.Retry(ctx, func() error {
		dbTx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer dbTx.Rollback(ctx)

		if err := uc.journalRepo.Append(ctx, dbTx, tx); err != nil {
			return err
		}

		return dbTx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	uc.recorder.TransactionPosted(len(lines))

	if err := uc.balances.ProcessTransaction(ctx, tx); err != nil {
		uc.logger.Warn().Err(err).Str("transaction", tx.ID).Msg("balance cache not updated")
	}

	uc.logger.Info().
		Str("transaction", tx.ID).
		Int64("sequence", tx.Sequence).
		Int("lines", len(lines)).
		Time("occurred_at", tx.OccurredAt).
		Msg("transaction posted")

	return tx, nil
}

// checkReferences verifies every line's account and currency exist and agree.
func (uc *TransactionUseCase) checkReferences(ctx context.Context, tx *domain.Transaction) error {
	seenCurrency := make(map[domain.CurrencyCode]bool)
	seenAccount := make(map[string]*domain.Account)

	for _, l := range tx.Lines() {
		if !seenCurrency[l.Currency()] {
			if _, err := uc.currencyRepo.GetByCode(ctx, l.Currency()); err != nil {
				return err
			}
			seenCurrency[l.Currency()] = true
		}

		account, ok := seenAccount[l.Account().String()]
		if !ok {
			a, err := uc.accountRepo.GetByName(ctx, l.Account())
			if err != nil {
				if errors.Is(err, domain.ErrAccountNotFound) {
					return domain.NewDomainError(domain.ErrAccountNotFound, l.Account().String(), "unknown account")
				}
				return err
			}
			account = a
			seenAccount[l.Account().String()] = a
		}

		if account.Currency != l.Currency() {
			return domain.NewDomainError(domain.ErrCurrencyMismatch, l.Account().String(),
				"account holds %s, line is in %s", account.Currency, l.Currency())
		}
	}

	return nil
}

// ListTransactions returns the transactions touching an account, filtered
// and paginated per query.
func (uc *TransactionUseCase) ListTransactions(ctx context.Context, input domain.LedgerQueryInput) ([]*domain.Transaction, error) {
	query, err := domain.NewLedgerQuery(input)
	if err != nil {
		return nil, err
	}

	if query.Limit == 0 {
		return []*domain.Transaction{}, nil
	}

	return uc.journalRepo.List(ctx, query)
}

// GetBalanceInput represents input for a balance lookup.
type GetBalanceInput struct {
	Account   string
	AsOf      *time.Time
	Recompute bool
}

// GetBalance returns the balance of an account as of a point in time. Unknown
// accounts have a zero balance.
func (uc *TransactionUseCase) GetBalance(ctx context.Context, input GetBalanceInput) (domain.AccountName, string, error) {
	name, err := domain.NewAccountName(input.Account)
	if err != nil {
		return domain.AccountName{}, "", err
	}

	asOf := uc.clock.Now()
	if input.AsOf != nil {
		asOf = *input.AsOf
	}

	balance, err := uc.balances.GetBalance(ctx, name, asOf, input.Recompute)
	if err != nil {
		return domain.AccountName{}, "", err
	}

	return name, uc.precision.Money(balance).StringFixed(uc.precision.MoneyScale), nil
}
