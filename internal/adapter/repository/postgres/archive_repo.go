package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

// ArchiveRepository implements usecase.ArchiveSink by copying audit events
// into fx_audit_archive. Re-archiving an event refreshes its archived_at.
type ArchiveRepository struct {
	pool dbtx
}

// NewArchiveRepository creates a new ArchiveRepository.
func NewArchiveRepository(pool *pgxpool.Pool) *ArchiveRepository {
	return newArchiveRepository(pool)
}

func newArchiveRepository(pool dbtx) *ArchiveRepository {
	return &ArchiveRepository{pool: pool}
}

// Archive copies events into the archive table and returns the number of
// rows written.
func (r *ArchiveRepository) Archive(ctx context.Context, events []*domain.ExchangeRateEvent) (int, error) {
	return archiveEvents(ctx, r.pool, events)
}

// ArchiveTx is Archive inside tx, so the copy commits with the delete.
func (r *ArchiveRepository) ArchiveTx(ctx context.Context, tx usecase.Transaction, events []*domain.ExchangeRateEvent) (int, error) {
	return archiveEvents(ctx, txOf(tx), events)
}

func archiveEvents(ctx context.Context, q dbtx, events []*domain.ExchangeRateEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	ids := make([]int64, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}

	tag, err := q.Exec(ctx, `
		INSERT INTO fx_audit_archive (id, currency_code, rate, occurred_at, policy, source, archived_at)
		SELECT id, currency_code, rate, occurred_at, policy, source, now()
		FROM fx_audit_events
		WHERE id = ANY($1)
		ON CONFLICT (id) DO UPDATE SET archived_at = EXCLUDED.archived_at
	`, ids)
	if err != nil {
		return 0, err
	}

	return int(tag.RowsAffected()), nil
}
