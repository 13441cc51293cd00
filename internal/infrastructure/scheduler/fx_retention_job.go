package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/bookkeeper/internal/usecase"
)

const fxRetentionLockKey = "job:fx_audit_retention"

// Retention runs one FX audit retention pass.
type Retention interface {
	Run(ctx context.Context, dryRun bool) (*usecase.RetentionResult, error)
}

// FXRetentionJob prunes expired FX audit events. Runs on different
// processes are serialized through the locker.
type FXRetentionJob struct {
	log       zerolog.Logger
	retention Retention
	locker    usecase.Locker
	timeout   time.Duration
}

// FXRetentionConfig holds configuration for the retention job
type FXRetentionConfig struct {
	Log       zerolog.Logger
	Retention Retention
	Locker    usecase.Locker
	// Timeout bounds one run; zero means no bound.
	Timeout time.Duration
}

// NewFXRetentionJob creates a new retention job
func NewFXRetentionJob(cfg FXRetentionConfig) *FXRetentionJob {
	return &FXRetentionJob{
		log:       cfg.Log.With().Str("job", "fx_audit_retention").Logger(),
		retention: cfg.Retention,
		locker:    cfg.Locker,
		timeout:   cfg.Timeout,
	}
}

// Name returns the job name
func (j *FXRetentionJob) Name() string {
	return "fx_audit_retention"
}

// Run executes one retention pass.
func (j *FXRetentionJob) Run() error {
	ctx := context.Background()
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	start := time.Now()

	return j.locker.WithLock(ctx, fxRetentionLockKey, func(ctx context.Context) error {
		res, err := j.retention.Run(ctx, false)
		if err != nil {
			return err
		}

		j.log.Info().
			Time("cutoff", res.Cutoff).
			Int("candidates", res.Candidates).
			Int("archived", res.Archived).
			Int("deleted", res.Deleted).
			Dur("duration", time.Since(start)).
			Msg("fx audit retention completed")

		return nil
	})
}
