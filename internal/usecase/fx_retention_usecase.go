package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/bookkeeper/internal/domain"
)

// RetentionConfig configures the FX audit retention job.
type RetentionConfig struct {
	RetentionDays int
	BatchSize     int
	Mode          domain.RetentionMode
}

// RetentionResult summarizes one retention run.
type RetentionResult struct {
	Cutoff     time.Time
	Candidates int
	Batches    []domain.Batch
	Archived   int
	Deleted    int
	DryRun     bool
}

// FXRetentionUseCase removes expired exchange-rate audit events, archiving
// them first in archive mode.
type FXRetentionUseCase struct {
	txManager TransactionManager
	auditRepo FXAuditRepository
	sink      ArchiveSink
	retrier   Retrier
	clock     Clock
	cfg       RetentionConfig
	recorder  Recorder
	logger    zerolog.Logger
}

// NewFXRetentionUseCase creates a new FXRetentionUseCase. sink may be nil in
// delete mode.
func NewFXRetentionUseCase(
	txManager TransactionManager,
	auditRepo FXAuditRepository,
	sink ArchiveSink,
	retrier Retrier,
	clock Clock,
	cfg RetentionConfig,
	recorder Recorder,
	logger zerolog.Logger,
) *FXRetentionUseCase {
	return &FXRetentionUseCase{
		txManager: txManager,
		auditRepo: auditRepo,
		sink:      sink,
		retrier:   retrier,
		clock:     clock,
		cfg:       cfg,
		recorder:  recorder,
		logger:    logger.With().Str("component", "fx_retention").Logger(),
	}
}

// Run applies the retention policy once. With dryRun set nothing is archived
// or deleted; the result reports what would be.
func (uc *FXRetentionUseCase) Run(ctx context.Context, dryRun bool) (*RetentionResult, error) {
	mode, err := domain.ParseRetentionMode(string(uc.cfg.Mode))
	if err != nil {
		return nil, err
	}
	if mode == domain.RetentionArchive && uc.sink == nil {
		return nil, domain.NewValidationError(domain.ErrInvalidInput, "sink", "archive mode needs an archive sink")
	}

	cutoff, err := domain.MakeCutoff(uc.clock.Now(), uc.cfg.RetentionDays)
	if err != nil {
		return nil, err
	}

	total, err := uc.auditRepo.CountOlderThan(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	plan, err := domain.BatchPlan(total, uc.cfg.BatchSize)
	if err != nil {
		return nil, err
	}

	result := &RetentionResult{Cutoff: cutoff, Candidates: total, Batches: plan, DryRun: dryRun}

	log := uc.logger.With().Time("cutoff", cutoff).Str("mode", string(mode)).Logger()
	log.Info().Int("candidates", total).Int("batches", len(plan)).Bool("dry_run", dryRun).Msg("fx audit retention started")

	if dryRun {
		return result, nil
	}

	for i, batch := range plan {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		archived, deleted, err := uc.runBatch(ctx, cutoff, batch, mode)
		result.Archived += archived
		result.Deleted += deleted
		if err != nil {
			log.Error().Err(err).Int("batch", i).Msg("fx audit retention batch failed")
			return result, err
		}

		log.Debug().Int("batch", i).Int("archived", archived).Int("deleted", deleted).Msg("fx audit batch done")

		// Rows that arrived between the count and this batch may exhaust
		// the older set early.
		if deleted == 0 {
			break
		}
	}

	uc.recorder.AuditRowsRemoved(mode, result.Deleted)
	log.Info().Int("archived", result.Archived).Int("deleted", result.Deleted).Msg("fx audit retention finished")

	return result, nil
}

// runBatch handles the oldest batch.Limit expired rows. Deleted rows leave
// the set, so every batch reads from its head.
func (uc *FXRetentionUseCase) runBatch(ctx context.Context, cutoff time.Time, batch domain.Batch, mode domain.RetentionMode) (int, int, error) {
	events, err := uc.auditRepo.ListOlderThan(ctx, cutoff, batch.Limit)
	if err != nil {
		return 0, 0, err
	}

	refs := make([]domain.EventRef, 0, len(events))
	byID := make(map[int64]*domain.ExchangeRateEvent, len(events))
	for _, e := range events {
		refs = append(refs, e.Ref())
		byID[e.ID] = e
	}

	old, err := domain.IdentifyOld(refs, cutoff)
	if err != nil {
		return 0, 0, err
	}
	if len(old) == 0 {
		return 0, 0, nil
	}

	ids := make([]int64, 0, len(old))
	expired := make([]*domain.ExchangeRateEvent, 0, len(old))
	for _, ref := range old {
		ids = append(ids, ref.ID)
		expired = append(expired, byID[ref.ID])
	}

	if sink, ok := uc.sink.(TxArchiveSink); ok && mode == domain.RetentionArchive && uc.txManager != nil {
		return uc.archiveAndDelete(ctx, sink, expired, ids)
	}

	archived := 0
	if mode == domain.RetentionArchive {
		archived, err = uc.sink.Archive(ctx, expired)
		if err != nil {
			return 0, 0, err
		}
		if archived != len(expired) {
			return archived, 0, domain.NewDomainError(domain.ErrArchiveMismatch, "archive",
				"archived %d of %d events", archived, len(expired))
		}
	}

	var deleted int
	err = uc.retrier.Retry(ctx, func() error {
		n, err := uc.auditRepo.DeleteByIDs(ctx, ids)
		if err != nil {
			return err
		}
		deleted = n
		return nil
	})
	if err != nil {
		return archived, 0, err
	}

	if mode == domain.RetentionArchive && deleted != archived {
		return archived, deleted, domain.NewDomainError(domain.ErrArchiveMismatch, "archive",
			"archived %d events but deleted %d", archived, deleted)
	}

	return archived, deleted, nil
}

// archiveAndDelete copies and deletes one batch in a single storage
// transaction. On any failure neither side is applied.
func (uc *FXRetentionUseCase) archiveAndDelete(ctx context.Context, sink TxArchiveSink, expired []*domain.ExchangeRateEvent, ids []int64) (int, int, error) {
	var archived, deleted int
	err := uc.retrier.Retry(ctx, func() error {
		dbTx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer dbTx.Rollback(ctx)

		archived, err = sink.ArchiveTx(ctx, dbTx, expired)
		if err != nil {
			return err
		}
		if archived != len(expired) {
			return domain.NewDomainError(domain.ErrArchiveMismatch, "archive",
				"archived %d of %d events", archived, len(expired))
		}

		deleted, err = uc.auditRepo.DeleteByIDsTx(ctx, dbTx, ids)
		if err != nil {
			return err
		}
		if deleted != archived {
			return domain.NewDomainError(domain.ErrArchiveMismatch, "archive",
				"archived %d events but deleted %d", archived, deleted)
		}

		return dbTx.Commit(ctx)
	})
	if err != nil {
		return 0, 0, err
	}

	return archived, deleted, nil
}
