package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/bookkeeper/internal/domain"
)

var fxAuditCols = []string{"id", "currency_code", "rate", "occurred_at", "policy", "source"}

func TestFXAuditRepositoryAppend(t *testing.T) {
	pool := newMockPool(t)
	repo := newFXAuditRepository(pool)

	source := "ecb"
	event := &domain.ExchangeRateEvent{
		Code:       "EUR",
		Rate:       decimal.RequireFromString("1.1"),
		OccurredAt: t0,
		Policy:     domain.PolicyWeightedAverage,
		Source:     &source,
	}

	pool.ExpectQuery(sqlRe("INSERT INTO fx_audit_events")).
		WithArgs("EUR", pgxmock.AnyArg(), pgxmock.AnyArg(), string(domain.PolicyWeightedAverage), &source).
		WillReturnRows(pool.NewRows([]string{"id"}).AddRow(int64(42)))

	require.NoError(t, repo.Append(context.Background(), event))
	assert.Equal(t, int64(42), event.ID)
	assertExpectations(t, pool)
}

func TestFXAuditRepositoryList(t *testing.T) {
	pool := newMockPool(t)
	repo := newFXAuditRepository(pool)

	pool.ExpectQuery(sqlRe("ORDER BY occurred_at DESC, id DESC")).
		WithArgs("EUR", 20).
		WillReturnRows(pool.NewRows(fxAuditCols).
			AddRow(int64(2), "EUR", "1.200000", t0.Add(time.Hour), "last_write", nil).
			AddRow(int64(1), "EUR", "1.100000", t0, "last_write", strPtr("manual")))

	events, err := repo.List(context.Background(), "EUR", 20)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(2), events[0].ID)
	assert.Nil(t, events[0].Source)
	require.NotNil(t, events[1].Source)
	assert.Equal(t, "manual", *events[1].Source)
	assert.True(t, events[1].Rate.Equal(decimal.RequireFromString("1.1")))

	pool.ExpectQuery(sqlRe("FROM fx_audit_events")).
		WithArgs("", 5).
		WillReturnRows(pool.NewRows(fxAuditCols))

	events, err = repo.List(context.Background(), "", 5)
	require.NoError(t, err)
	assert.Empty(t, events)

	assertExpectations(t, pool)
}

func TestFXAuditRepositoryOlderThan(t *testing.T) {
	pool := newMockPool(t)
	repo := newFXAuditRepository(pool)

	pool.ExpectQuery(sqlRe("SELECT COUNT(*) FROM fx_audit_events WHERE occurred_at < $1")).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pool.NewRows([]string{"count"}).AddRow(int64(3)))
	pool.ExpectQuery(sqlRe("ORDER BY occurred_at, id")).
		WithArgs(pgxmock.AnyArg(), 2).
		WillReturnRows(pool.NewRows(fxAuditCols).
			AddRow(int64(1), "EUR", "1.1", t0.Add(-3*time.Hour), "last_write", nil).
			AddRow(int64(2), "EUR", "1.1", t0.Add(-2*time.Hour), "last_write", nil))

	n, err := repo.CountOlderThan(context.Background(), t0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	events, err := repo.ListOlderThan(context.Background(), t0, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[0].OccurredAt.Before(events[1].OccurredAt))

	assertExpectations(t, pool)
}

func TestFXAuditRepositoryDeleteByIDs(t *testing.T) {
	pool := newMockPool(t)
	repo := newFXAuditRepository(pool)

	n, err := repo.DeleteByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	pool.ExpectExec(sqlRe("DELETE FROM fx_audit_events WHERE id = ANY($1)")).
		WithArgs([]int64{1, 2}).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	n, err = repo.DeleteByIDs(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assertExpectations(t, pool)
}

func TestArchiveRepositoryArchive(t *testing.T) {
	pool := newMockPool(t)
	repo := newArchiveRepository(pool)

	n, err := repo.Archive(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	pool.ExpectExec(sqlRe("INSERT INTO fx_audit_archive")).
		WithArgs([]int64{4, 5}).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))

	n, err = repo.Archive(context.Background(), []*domain.ExchangeRateEvent{{ID: 4}, {ID: 5}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assertExpectations(t, pool)
}

func TestArchiveAndDeleteShareTransaction(t *testing.T) {
	pool := newMockPool(t)
	txm := newTxManagerWithPool(pool)
	audit := newFXAuditRepository(pool)
	archive := newArchiveRepository(pool)
	ctx := context.Background()

	pool.ExpectBegin()
	pool.ExpectExec(sqlRe("INSERT INTO fx_audit_archive")).
		WithArgs([]int64{7}).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	pool.ExpectExec(sqlRe("DELETE FROM fx_audit_events WHERE id = ANY($1)")).
		WithArgs([]int64{7}).
		WillReturnError(errors.New("lock timeout"))
	pool.ExpectRollback()

	tx, err := txm.Begin(ctx)
	require.NoError(t, err)

	n, err := archive.ArchiveTx(ctx, tx, []*domain.ExchangeRateEvent{{ID: 7}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = audit.DeleteByIDsTx(ctx, tx, []int64{7})
	require.Error(t, err)
	require.NoError(t, tx.Rollback(ctx))

	assertExpectations(t, pool)
}
