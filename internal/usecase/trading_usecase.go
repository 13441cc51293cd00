package usecase

import (
	"context"
	"time"

	"github.com/iho/bookkeeper/internal/domain"
)

// TradingUseCase reports multi-currency trading positions.
type TradingUseCase struct {
	journalRepo  JournalRepository
	currencyRepo CurrencyRepository
	aggregator   *domain.TradingAggregator
	clock        Clock
}

// NewTradingUseCase creates a new TradingUseCase.
func NewTradingUseCase(journalRepo JournalRepository, currencyRepo CurrencyRepository, precision domain.Precision, clock Clock) *TradingUseCase {
	return &TradingUseCase{
		journalRepo:  journalRepo,
		currencyRepo: currencyRepo,
		aggregator:   domain.NewTradingAggregator(precision),
		clock:        clock,
	}
}

// TradingBalanceInput selects the lines and the conversion.
type TradingBalanceInput struct {
	AsOf *time.Time
	// Base overrides the registered base currency.
	Base       string
	Convention domain.RateConvention
	Mode       domain.ConversionMode
}

// RawBalance nets every line posted up to AsOf per currency.
func (uc *TradingUseCase) RawBalance(ctx context.Context, input TradingBalanceInput) ([]domain.TradingRow, error) {
	lines, err := uc.lines(ctx, input.AsOf)
	if err != nil {
		return nil, err
	}
	return uc.aggregator.Raw(lines)
}

// DetailedBalance adds base-currency equivalents to RawBalance.
func (uc *TradingUseCase) DetailedBalance(ctx context.Context, input TradingBalanceInput) ([]domain.DetailedTradingRow, error) {
	currencies, err := uc.currencyRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	base := domain.CurrencyCode(input.Base)
	if input.Base == "" {
		b, ok := domain.BaseOf(currencies)
		if !ok {
			return nil, domain.NewDomainError(domain.ErrCurrencyNotFound, "base", "no base currency is set")
		}
		base = b.Code
	}

	lines, err := uc.lines(ctx, input.AsOf)
	if err != nil {
		return nil, err
	}

	return uc.aggregator.Detailed(lines, currencies, domain.TradingOptions{
		Base:       base,
		Convention: input.Convention,
		Mode:       input.Mode,
	})
}

func (uc *TradingUseCase) lines(ctx context.Context, asOf *time.Time) ([]domain.EntryLine, error) {
	at := uc.clock.Now()
	if asOf != nil {
		n, err := domain.NormalizeTime(*asOf, "as_of")
		if err != nil {
			return nil, err
		}
		at = n
	}
	return uc.journalRepo.Lines(ctx, at)
}
