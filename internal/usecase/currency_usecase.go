package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/bookkeeper/internal/domain"
)

// RateStateStore keeps the policy counter of each currency. It must outlive
// the process: the weighted average depends on how many observations were
// folded in before.
type RateStateStore interface {
	Load(ctx context.Context, code domain.CurrencyCode) (count int, ok bool, err error)
	Save(ctx context.Context, code domain.CurrencyCode, count int) error
}

// MemoryRateStateStore is a process-local RateStateStore.
type MemoryRateStateStore struct {
	mu     sync.Mutex
	counts map[domain.CurrencyCode]int
}

// NewMemoryRateStateStore creates an empty store.
func NewMemoryRateStateStore() *MemoryRateStateStore {
	return &MemoryRateStateStore{counts: make(map[domain.CurrencyCode]int)}
}

func (s *MemoryRateStateStore) Load(_ context.Context, code domain.CurrencyCode) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.counts[code]
	return n, ok, nil
}

func (s *MemoryRateStateStore) Save(_ context.Context, code domain.CurrencyCode, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[code] = count
	return nil
}

// CurrencyUseCase handles currencies, the base flag and exchange-rate updates.
type CurrencyUseCase struct {
	currencyRepo CurrencyRepository
	auditRepo    FXAuditRepository
	locker       Locker
	states       RateStateStore
	policy       domain.RatePolicy
	clock        Clock
	recorder     Recorder
	logger       zerolog.Logger
}

// NewCurrencyUseCase creates a new CurrencyUseCase.
func NewCurrencyUseCase(
	currencyRepo CurrencyRepository,
	auditRepo FXAuditRepository,
	locker Locker,
	states RateStateStore,
	policy domain.RatePolicy,
	clock Clock,
	recorder Recorder,
	logger zerolog.Logger,
) *CurrencyUseCase {
	return &CurrencyUseCase{
		currencyRepo: currencyRepo,
		auditRepo:    auditRepo,
		locker:       locker,
		states:       states,
		policy:       policy,
		clock:        clock,
		recorder:     recorder,
		logger:       logger.With().Str("component", "currency").Logger(),
	}
}

// RegisterCurrencyInput represents input for registering a currency.
type RegisterCurrencyInput struct {
	Code   string
	IsBase bool
}

// RegisterCurrency adds a currency. Registering an existing code is an error.
func (uc *CurrencyUseCase) RegisterCurrency(ctx context.Context, input RegisterCurrencyInput) (*domain.Currency, error) {
	currency, err := domain.NewCurrency(input.Code)
	if err != nil {
		return nil, err
	}

	existing, err := uc.currencyRepo.GetByCode(ctx, currency.Code)
	if err == nil && existing != nil {
		return nil, domain.NewDomainError(domain.ErrDuplicateCurrency, string(currency.Code), "currency already registered")
	}
	if err != nil && !errors.Is(err, domain.ErrCurrencyNotFound) {
		return nil, err
	}

	if err := uc.currencyRepo.Upsert(ctx, currency); err != nil {
		return nil, err
	}

	if input.IsBase {
		if err := uc.SetBase(ctx, string(currency.Code)); err != nil {
			return nil, err
		}
		currency.IsBase = true
	}

	uc.logger.Info().Str("currency", string(currency.Code)).Bool("base", currency.IsBase).Msg("currency registered")
	return currency, nil
}

// SetBase makes code the only base currency.
func (uc *CurrencyUseCase) SetBase(ctx context.Context, code string) error {
	currencies, err := uc.currencyRepo.List(ctx)
	if err != nil {
		return err
	}

	base, err := domain.EnsureSingleBase(currencies, code)
	if err != nil {
		return err
	}

	if err := uc.currencyRepo.SetBase(ctx, base.Code); err != nil {
		return err
	}
	if err := uc.states.Save(ctx, base.Code, 0); err != nil {
		return err
	}

	uc.logger.Info().Str("currency", string(base.Code)).Msg("base currency set")
	return nil
}

// ClearBase removes the base flag from every currency.
func (uc *CurrencyUseCase) ClearBase(ctx context.Context) error {
	return uc.currencyRepo.ClearBase(ctx)
}

// GetCurrency returns one currency.
func (uc *CurrencyUseCase) GetCurrency(ctx context.Context, code string) (*domain.Currency, error) {
	c, err := domain.NewCurrencyCode(code)
	if err != nil {
		return nil, err
	}
	return uc.currencyRepo.GetByCode(ctx, c)
}

// ListCurrencies returns every currency ordered by code.
func (uc *CurrencyUseCase) ListCurrencies(ctx context.Context) ([]*domain.Currency, error) {
	return uc.currencyRepo.List(ctx)
}

// UpdateRateInput represents one observed exchange rate.
type UpdateRateInput struct {
	Code       string
	Rate       decimal.Decimal
	OccurredAt *time.Time
	Source     *string
}

// UpdateRate folds an observed rate into the stored rate of a currency using
// the configured policy and records an audit event.
func (uc *CurrencyUseCase) UpdateRate(ctx context.Context, input UpdateRateInput) (*domain.Currency, error) {
	code, err := domain.NewCurrencyCode(input.Code)
	if err != nil {
		return nil, err
	}

	occurredAt := uc.clock.Now()
	if input.OccurredAt != nil {
		occurredAt, err = domain.NormalizeTime(*input.OccurredAt, "occurred_at")
		if err != nil {
			return nil, err
		}
	}

	var updated *domain.Currency
	err = uc.locker.WithLock(ctx, "fx:"+string(code), func(ctx context.Context) error {
		currency, err := uc.currencyRepo.GetByCode(ctx, code)
		if err != nil {
			return err
		}
		if currency.IsBase {
			return domain.NewDomainError(domain.ErrBaseCurrencyRate, string(code), "base currency has no rate")
		}

		prev := domain.RateState{Rate: currency.RateToBase}
		n, ok, err := uc.states.Load(ctx, code)
		if err != nil {
			return err
		}
		if ok {
			prev.Count = n
		}

		next, err := uc.policy.Apply(prev, input.Rate)
		if err != nil {
			return err
		}

		if err := currency.SetRate(*next.Rate); err != nil {
			return err
		}
		if err := uc.currencyRepo.Upsert(ctx, currency); err != nil {
			return err
		}
		if err := uc.states.Save(ctx, code, next.Count); err != nil {
			return err
		}

		event := &domain.ExchangeRateEvent{
			Code:       code,
			Rate:       input.Rate,
			OccurredAt: occurredAt,
			Policy:     uc.policy.Mode,
			Source:     input.Source,
		}
		if err := uc.auditRepo.Append(ctx, event); err != nil {
			return err
		}

		updated = currency
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.recorder.RateUpdated(uc.policy.Mode)
	uc.logger.Info().
		Str("currency", string(code)).
		Str("observed", input.Rate.String()).
		Str("stored", updated.RateToBase.String()).
		Str("policy", string(uc.policy.Mode)).
		Msg("exchange rate updated")

	return updated, nil
}

// ListRateEventsInput represents input for listing audit events.
type ListRateEventsInput struct {
	Code  string
	Limit int
}

// ListRateEvents returns audit events newest first.
func (uc *CurrencyUseCase) ListRateEvents(ctx context.Context, input ListRateEventsInput) ([]*domain.ExchangeRateEvent, error) {
	var code domain.CurrencyCode
	if input.Code != "" {
		c, err := domain.NewCurrencyCode(input.Code)
		if err != nil {
			return nil, err
		}
		code = c
	}

	if input.Limit <= 0 {
		input.Limit = 20
	}
	if input.Limit > 1000 {
		input.Limit = 1000
	}

	return uc.auditRepo.List(ctx, code, input.Limit)
}
