package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/bookkeeper/internal/infrastructure/lock"
	"github.com/iho/bookkeeper/internal/usecase"
)

type countingJob struct {
	runs atomic.Int32
	done chan struct{}
	err  error
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run() error {
	if j.runs.Add(1) == 1 && j.done != nil {
		close(j.done)
	}
	return j.err
}

func TestSchedulerAddJob(t *testing.T) {
	s := New(zerolog.Nop())

	require.NoError(t, s.AddJob("@daily", &countingJob{}))
	require.NoError(t, s.AddJob("0 30 2 * * *", &countingJob{}))
	require.NoError(t, s.AddJob("30 2 * * *", &countingJob{}))
	assert.Error(t, s.AddJob("every tuesday", &countingJob{}))
	assert.Equal(t, 3, s.Entries())
}

func TestSchedulerRunsJobs(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{done: make(chan struct{}), err: errors.New("failures are logged")}

	require.NoError(t, s.AddJob("* * * * * *", job))
	s.Start()
	defer s.Stop()

	select {
	case <-job.done:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestSchedulerRunNow(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{err: errors.New("boom")}

	assert.EqualError(t, s.RunNow(job), "boom")
	assert.Equal(t, int32(1), job.runs.Load())
}

type stubRetention struct {
	calls  int
	dryRun bool
	result *usecase.RetentionResult
	err    error
}

func (r *stubRetention) Run(ctx context.Context, dryRun bool) (*usecase.RetentionResult, error) {
	r.calls++
	r.dryRun = dryRun
	return r.result, r.err
}

func TestFXRetentionJob(t *testing.T) {
	retention := &stubRetention{result: &usecase.RetentionResult{Candidates: 3, Deleted: 3}}
	locks := lock.NewKeyedMutex()
	job := NewFXRetentionJob(FXRetentionConfig{
		Log:       zerolog.Nop(),
		Retention: retention,
		Locker:    locks,
		Timeout:   time.Second,
	})

	assert.Equal(t, "fx_audit_retention", job.Name())
	require.NoError(t, job.Run())
	assert.Equal(t, 1, retention.calls)
	assert.False(t, retention.dryRun)
	assert.Zero(t, locks.Len())

	retention.err = errors.New("db down")
	assert.EqualError(t, job.Run(), "db down")
}

func TestFXRetentionJobWaitsForLock(t *testing.T) {
	retention := &stubRetention{}
	locks := lock.NewKeyedMutex()
	job := NewFXRetentionJob(FXRetentionConfig{
		Log:       zerolog.Nop(),
		Retention: retention,
		Locker:    locks,
		Timeout:   20 * time.Millisecond,
	})

	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = locks.WithLock(context.Background(), fxRetentionLockKey, func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	assert.ErrorIs(t, job.Run(), context.DeadlineExceeded)
	assert.Zero(t, retention.calls)
}
