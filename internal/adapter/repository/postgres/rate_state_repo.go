package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/bookkeeper/internal/domain"
)

// RateStateRepository implements usecase.RateStateStore on the
// currencies.rate_count column.
type RateStateRepository struct {
	pool pgxPool
}

// NewRateStateRepository creates a new RateStateRepository.
func NewRateStateRepository(pool *pgxpool.Pool) *RateStateRepository {
	return &RateStateRepository{pool: pool}
}

// Load returns the number of observations folded into the stored rate.
// An unknown currency has no state.
func (r *RateStateRepository) Load(ctx context.Context, code domain.CurrencyCode) (int, bool, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT rate_count FROM currencies WHERE code = $1`, string(code)).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return count, true, nil
}

func (r *RateStateRepository) Save(ctx context.Context, code domain.CurrencyCode, count int) error {
	tag, err := r.pool.Exec(ctx, `UPDATE currencies SET rate_count = $2 WHERE code = $1`, string(code), count)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NewDomainError(domain.ErrCurrencyNotFound, string(code), "unknown currency")
	}
	return nil
}
