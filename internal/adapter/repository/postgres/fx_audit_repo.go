package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

const fxAuditColumns = `id, currency_code, rate, occurred_at, policy, source`

// FXAuditRepository implements usecase.FXAuditRepository on the
// fx_audit_events table.
type FXAuditRepository struct {
	pool dbtx
}

// NewFXAuditRepository creates a new FXAuditRepository.
func NewFXAuditRepository(pool *pgxpool.Pool) *FXAuditRepository {
	return newFXAuditRepository(pool)
}

func newFXAuditRepository(pool dbtx) *FXAuditRepository {
	return &FXAuditRepository{pool: pool}
}

// Append stores event and assigns its ID.
func (r *FXAuditRepository) Append(ctx context.Context, event *domain.ExchangeRateEvent) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO fx_audit_events (currency_code, rate, occurred_at, policy, source)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`,
		string(event.Code),
		decimalToNumeric(event.Rate),
		timeToPgTimestamptz(event.OccurredAt),
		string(event.Policy),
		event.Source,
	).Scan(&event.ID)
}

// List returns the newest events first. An empty code lists every currency.
func (r *FXAuditRepository) List(ctx context.Context, code domain.CurrencyCode, limit int) ([]*domain.ExchangeRateEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+fxAuditColumns+`
		FROM fx_audit_events
		WHERE $1::text = '' OR currency_code = $1
		ORDER BY occurred_at DESC, id DESC
		LIMIT $2
	`, string(code), limit)
	if err != nil {
		return nil, err
	}

	return collectEvents(rows)
}

// CountOlderThan counts events strictly before cutoff.
func (r *FXAuditRepository) CountOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM fx_audit_events WHERE occurred_at < $1`,
		timeToPgTimestamptz(cutoff),
	).Scan(&n)
	return int(n), err
}

// ListOlderThan returns up to limit events strictly before cutoff, oldest
// first.
func (r *FXAuditRepository) ListOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*domain.ExchangeRateEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+fxAuditColumns+`
		FROM fx_audit_events
		WHERE occurred_at < $1
		ORDER BY occurred_at, id
		LIMIT $2
	`, timeToPgTimestamptz(cutoff), limit)
	if err != nil {
		return nil, err
	}

	return collectEvents(rows)
}

// DeleteByIDs deletes the given events and reports how many rows went.
func (r *FXAuditRepository) DeleteByIDs(ctx context.Context, ids []int64) (int, error) {
	return deleteEvents(ctx, r.pool, ids)
}

// DeleteByIDsTx is DeleteByIDs inside tx.
func (r *FXAuditRepository) DeleteByIDsTx(ctx context.Context, tx usecase.Transaction, ids []int64) (int, error) {
	return deleteEvents(ctx, txOf(tx), ids)
}

func deleteEvents(ctx context.Context, q dbtx, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tag, err := q.Exec(ctx, `DELETE FROM fx_audit_events WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func collectEvents(rows pgx.Rows) ([]*domain.ExchangeRateEvent, error) {
	defer rows.Close()

	events := []*domain.ExchangeRateEvent{}
	for rows.Next() {
		var (
			e          domain.ExchangeRateEvent
			code       string
			rate       string
			occurredAt time.Time
			policy     string
		)
		if err := rows.Scan(&e.ID, &code, &rate, &occurredAt, &policy, &e.Source); err != nil {
			return nil, err
		}
		d, err := parseNumeric(rate)
		if err != nil {
			return nil, err
		}
		e.Code = domain.CurrencyCode(code)
		e.Rate = d
		e.OccurredAt = occurredAt.UTC()
		e.Policy = domain.PolicyMode(policy)
		events = append(events, &e)
	}

	return events, rows.Err()
}
