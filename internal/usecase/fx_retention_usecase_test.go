package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
	"github.com/iho/bookkeeper/internal/usecase/mocks"
)

var retentionNow = time.Date(2025, 11, 11, 0, 0, 0, 0, time.UTC)

func seedAudit(t *testing.T, old, fresh int) *mocks.MockFXAuditRepository {
	t.Helper()

	repo := mocks.NewMockFXAuditRepository()
	cutoff := retentionNow.AddDate(0, 0, -90)
	for i := 0; i < old; i++ {
		require.NoError(t, repo.Append(context.Background(), &domain.ExchangeRateEvent{
			Code:       "EUR",
			Rate:       dec("1.1"),
			OccurredAt: cutoff.Add(-time.Duration(i+1) * time.Hour),
			Policy:     domain.PolicyLastWrite,
		}))
	}
	for i := 0; i < fresh; i++ {
		require.NoError(t, repo.Append(context.Background(), &domain.ExchangeRateEvent{
			Code:       "EUR",
			Rate:       dec("1.2"),
			OccurredAt: cutoff.Add(time.Duration(i) * time.Hour),
			Policy:     domain.PolicyLastWrite,
		}))
	}
	return repo
}

func newRetention(repo usecase.FXAuditRepository, sink usecase.ArchiveSink, mode domain.RetentionMode, recorder usecase.Recorder) *usecase.FXRetentionUseCase {
	return usecase.NewFXRetentionUseCase(mocks.NewMockTransactionManager(), repo, sink, mocks.MockRetrier{}, mocks.FixedClock{At: retentionNow},
		usecase.RetentionConfig{RetentionDays: 90, BatchSize: 2, Mode: mode}, recorder, nopLogger)
}

func TestFXRetentionUseCase_DryRun(t *testing.T) {
	repo := seedAudit(t, 5, 2)
	uc := newRetention(repo, nil, domain.RetentionDelete, usecase.NopRecorder{})

	res, err := uc.Run(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 8, 13, 0, 0, 0, 0, time.UTC), res.Cutoff)
	assert.Equal(t, 5, res.Candidates)
	assert.Equal(t, []domain.Batch{{Offset: 0, Limit: 2}, {Offset: 2, Limit: 2}, {Offset: 4, Limit: 1}}, res.Batches)
	assert.Zero(t, res.Deleted)
	assert.Equal(t, 7, repo.Len())
}

func TestFXRetentionUseCase_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	recorder := mocks.NewMockRecorder(ctrl)
	recorder.EXPECT().AuditRowsRemoved(domain.RetentionDelete, 5)

	repo := seedAudit(t, 5, 2)
	uc := newRetention(repo, nil, domain.RetentionDelete, recorder)

	res, err := uc.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Deleted)
	assert.Zero(t, res.Archived)
	assert.Equal(t, 2, repo.Len(), "events at or after the cutoff stay")

	// Nothing left to do on a second run.
	res, err = newRetention(repo, nil, domain.RetentionDelete, usecase.NopRecorder{}).Run(context.Background(), false)
	require.NoError(t, err)
	assert.Zero(t, res.Candidates)
}

func TestFXRetentionUseCase_Archive(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockArchiveSink(ctrl)

	var archived []int64
	sink.EXPECT().Archive(gomock.Any(), gomock.Any()).Times(3).DoAndReturn(
		func(ctx context.Context, events []*domain.ExchangeRateEvent) (int, error) {
			for _, e := range events {
				archived = append(archived, e.ID)
			}
			return len(events), nil
		})

	repo := seedAudit(t, 5, 2)
	uc := newRetention(repo, sink, domain.RetentionArchive, usecase.NopRecorder{})

	res, err := uc.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Archived)
	assert.Equal(t, 5, res.Deleted)
	assert.ElementsMatch(t, []int64{1, 2, 3, 4, 5}, archived)
	assert.Equal(t, 2, repo.Len())
}

func TestFXRetentionUseCase_ArchiveMismatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockArchiveSink(ctrl)
	sink.EXPECT().Archive(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, events []*domain.ExchangeRateEvent) (int, error) {
			return len(events) - 1, nil
		})

	repo := seedAudit(t, 5, 0)
	uc := newRetention(repo, sink, domain.RetentionArchive, usecase.NopRecorder{})

	_, err := uc.Run(context.Background(), false)
	assert.ErrorIs(t, err, domain.ErrArchiveMismatch)
	assert.Equal(t, 5, repo.Len(), "nothing is deleted when the archive is short")
}

func TestFXRetentionUseCase_DeleteCountMismatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockArchiveSink(ctrl)
	sink.EXPECT().Archive(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, events []*domain.ExchangeRateEvent) (int, error) {
			return len(events), nil
		})

	repo := seedAudit(t, 2, 0)
	repo.DeleteByIDsFunc = func(ctx context.Context, ids []int64) (int, error) {
		return len(ids) - 1, nil
	}

	_, err := newRetention(repo, sink, domain.RetentionArchive, usecase.NopRecorder{}).Run(context.Background(), false)
	assert.ErrorIs(t, err, domain.ErrArchiveMismatch)
}

func TestFXRetentionUseCase_Errors(t *testing.T) {
	repo := seedAudit(t, 1, 0)

	_, err := newRetention(repo, nil, domain.RetentionArchive, usecase.NopRecorder{}).Run(context.Background(), false)
	assert.True(t, domain.IsValidation(err), "archive mode without a sink")

	repo.DeleteByIDsFunc = func(ctx context.Context, ids []int64) (int, error) {
		return 0, errors.New("db down")
	}
	_, err = newRetention(repo, nil, domain.RetentionDelete, usecase.NopRecorder{}).Run(context.Background(), false)
	assert.EqualError(t, err, "db down")

	bad := usecase.NewFXRetentionUseCase(mocks.NewMockTransactionManager(), repo, nil, mocks.MockRetrier{}, mocks.FixedClock{At: retentionNow},
		usecase.RetentionConfig{RetentionDays: -1, BatchSize: 2, Mode: domain.RetentionDelete}, usecase.NopRecorder{}, nopLogger)
	_, err = bad.Run(context.Background(), true)
	assert.ErrorIs(t, err, domain.ErrInvalidRetention)
}

// tableSink archives into the same store as the audit rows.
type tableSink struct {
	txs      []usecase.Transaction
	archived []int64
}

func (s *tableSink) Archive(ctx context.Context, events []*domain.ExchangeRateEvent) (int, error) {
	return 0, errors.New("must archive inside the delete transaction")
}

func (s *tableSink) ArchiveTx(ctx context.Context, tx usecase.Transaction, events []*domain.ExchangeRateEvent) (int, error) {
	s.txs = append(s.txs, tx)
	for _, e := range events {
		s.archived = append(s.archived, e.ID)
	}
	return len(events), nil
}

type countingTxManager struct {
	commits, rollbacks int
}

func (m *countingTxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	committed := false
	return &mocks.MockTransaction{
		CommitFunc: func(ctx context.Context) error {
			committed = true
			m.commits++
			return nil
		},
		RollbackFunc: func(ctx context.Context) error {
			if !committed {
				m.rollbacks++
			}
			return nil
		},
	}, nil
}

func TestFXRetentionUseCase_ArchiveInDeleteTransaction(t *testing.T) {
	repo := seedAudit(t, 5, 2)
	sink := &tableSink{}
	txm := &countingTxManager{}

	uc := usecase.NewFXRetentionUseCase(txm, repo, sink, mocks.MockRetrier{}, mocks.FixedClock{At: retentionNow},
		usecase.RetentionConfig{RetentionDays: 90, BatchSize: 2, Mode: domain.RetentionArchive}, usecase.NopRecorder{}, nopLogger)

	res, err := uc.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Archived)
	assert.Equal(t, 5, res.Deleted)
	assert.ElementsMatch(t, []int64{1, 2, 3, 4, 5}, sink.archived)
	assert.Len(t, sink.txs, 3)
	assert.Equal(t, 3, txm.commits)
	assert.Zero(t, txm.rollbacks)
	assert.Equal(t, 2, repo.Len())
}

func TestFXRetentionUseCase_FailedDeleteRollsBackArchive(t *testing.T) {
	repo := seedAudit(t, 2, 0)
	repo.DeleteByIDsFunc = func(ctx context.Context, ids []int64) (int, error) {
		return 0, errors.New("lock timeout")
	}
	sink := &tableSink{}
	txm := &countingTxManager{}

	uc := usecase.NewFXRetentionUseCase(txm, repo, sink, mocks.MockRetrier{}, mocks.FixedClock{At: retentionNow},
		usecase.RetentionConfig{RetentionDays: 90, BatchSize: 2, Mode: domain.RetentionArchive}, usecase.NopRecorder{}, nopLogger)

	res, err := uc.Run(context.Background(), false)
	assert.EqualError(t, err, "lock timeout")
	assert.Zero(t, res.Archived, "the archive copy is rolled back with the delete")
	assert.Zero(t, res.Deleted)
	assert.Zero(t, txm.commits)
	assert.Equal(t, 1, txm.rollbacks)
}
