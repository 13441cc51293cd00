package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/bookkeeper/internal/domain"
)

// CurrencyRepository implements usecase.CurrencyRepository.
type CurrencyRepository struct {
	pool      pgxPool
	precision domain.Precision
}

// NewCurrencyRepository creates a new CurrencyRepository.
func NewCurrencyRepository(pool *pgxpool.Pool, precision domain.Precision) *CurrencyRepository {
	return newCurrencyRepository(pool, precision)
}

func newCurrencyRepository(pool pgxPool, precision domain.Precision) *CurrencyRepository {
	return &CurrencyRepository{pool: pool, precision: precision}
}

const currencyColumns = `code, is_base, rate_to_base`

// GetByCode retrieves a currency by code.
func (r *CurrencyRepository) GetByCode(ctx context.Context, code domain.CurrencyCode) (*domain.Currency, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+currencyColumns+` FROM currencies WHERE code = $1`, string(code))

	c, err := r.scan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewDomainError(domain.ErrCurrencyNotFound, string(code), "unknown currency")
		}
		return nil, err
	}

	return c, nil
}

// List returns every currency ordered by code.
func (r *CurrencyRepository) List(ctx context.Context) ([]*domain.Currency, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+currencyColumns+` FROM currencies ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var currencies []*domain.Currency
	for rows.Next() {
		c, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		currencies = append(currencies, c)
	}

	return currencies, rows.Err()
}

// Upsert inserts a currency or updates its rate. The base flag is only
// changed by SetBase and ClearBase.
func (r *CurrencyRepository) Upsert(ctx context.Context, currency *domain.Currency) error {
	var rate pgtype.Numeric
	if d, ok := currency.Rate(); ok {
		rate = decimalToNumeric(d)
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO currencies (code, is_base, rate_to_base)
		VALUES ($1, FALSE, $2)
		ON CONFLICT (code) DO UPDATE SET rate_to_base = EXCLUDED.rate_to_base
	`, string(currency.Code), rate)

	return err
}

// SetBase clears every base flag and sets code as the base, in one
// transaction. The new base loses its rate.
func (r *CurrencyRepository) SetBase(ctx context.Context, code domain.CurrencyCode) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}

	if err := setBase(ctx, tx, code); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}

func setBase(ctx context.Context, tx pgx.Tx, code domain.CurrencyCode) error {
	if _, err := tx.Exec(ctx, `UPDATE currencies SET is_base = FALSE WHERE is_base`); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `UPDATE currencies SET is_base = TRUE, rate_to_base = NULL WHERE code = $1`, string(code))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NewDomainError(domain.ErrCurrencyNotFound, string(code), "unknown currency")
	}

	return nil
}

// ClearBase removes the base flag from every currency.
func (r *CurrencyRepository) ClearBase(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `UPDATE currencies SET is_base = FALSE WHERE is_base`)
	return err
}

func (r *CurrencyRepository) scan(row pgx.Row) (*domain.Currency, error) {
	var (
		code   string
		isBase bool
		rate   *string
	)
	if err := row.Scan(&code, &isBase, &rate); err != nil {
		return nil, err
	}

	c := &domain.Currency{Code: domain.CurrencyCode(code), IsBase: isBase}
	d, err := parseNullableNumeric(rate)
	if err != nil {
		return nil, err
	}
	if d != nil && !isBase {
		er, err := domain.NewExchangeRate(*d, r.precision)
		if err != nil {
			return nil, err
		}
		c.RateToBase = &er
	}

	return c, nil
}
