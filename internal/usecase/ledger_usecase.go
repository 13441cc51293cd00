package usecase

import (
	"context"
	"errors"

	"github.com/iho/bookkeeper/internal/domain"
)

var (
	// ErrInconsistentLedger is returned when the ledger is not balanced.
	ErrInconsistentLedger = errors.New("ledger is inconsistent: debits do not equal credits")
)

// LedgerUseCase handles ledger-wide operations.
type LedgerUseCase struct {
	journalRepo JournalRepository
	aggregator  *domain.TradingAggregator
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(journalRepo JournalRepository, precision domain.Precision) *LedgerUseCase {
	return &LedgerUseCase{
		journalRepo: journalRepo,
		aggregator:  domain.NewTradingAggregator(precision),
	}
}

// CheckConsistency verifies that, per currency, the debits of every posted
// line equal the credits. The unbalanced rows are returned with the error.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) ([]domain.TradingRow, error) {
	debits, credits, err := uc.journalRepo.Totals(ctx)
	if err != nil {
		return nil, err
	}

	var off []domain.TradingRow
	for _, row := range uc.aggregator.RowsFromTotals(debits, credits) {
		if !row.Net.IsZero() {
			off = append(off, row)
		}
	}

	if len(off) > 0 {
		return off, domain.NewDomainError(ErrInconsistentLedger, off[0].Currency.String(), "net %s", off[0].Net.String())
	}

	return nil, nil
}
