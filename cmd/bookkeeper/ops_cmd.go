package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/infrastructure/metrics"
	"github.com/iho/bookkeeper/internal/infrastructure/postgres"
	"github.com/iho/bookkeeper/internal/infrastructure/scheduler"
)

type batchView struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

type retentionView struct {
	Cutoff     time.Time   `json:"cutoff"`
	Candidates int         `json:"candidates"`
	Batches    []batchView `json:"batches"`
	Archived   int         `json:"archived"`
	Deleted    int         `json:"deleted"`
	DryRun     bool        `json:"dry_run"`
}

func newBatchViews(batches []domain.Batch) []batchView {
	out := make([]batchView, 0, len(batches))
	for _, b := range batches {
		out = append(out, batchView{Offset: b.Offset, Limit: b.Limit})
	}
	return out
}

func (c *cli) fxAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fx-audit",
		Short: "Exchange-rate audit trail maintenance",
	}

	var dryRun bool
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete or archive audit events older than the retention window",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			res, err := svc.retention.Run(cmd.Context(), dryRun)
			if err != nil {
				return err
			}
			return printJSON(c.stdout, retentionView{
				Cutoff:     res.Cutoff,
				Candidates: res.Candidates,
				Batches:    newBatchViews(res.Batches),
				Archived:   res.Archived,
				Deleted:    res.Deleted,
				DryRun:     res.DryRun,
			})
		},
	}
	prune.Flags().BoolVar(&dryRun, "dry-run", false, "Report the plan without removing anything")

	cmd.AddCommand(prune)
	return cmd
}

func (c *cli) schedulerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Background jobs",
	}

	var (
		once    bool
		timeout time.Duration
	)
	run := &cobra.Command{
		Use:   "run",
		Short: "Run the FX audit retention job on FX_AUDIT_SCHEDULE until interrupted",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}

			job := scheduler.NewFXRetentionJob(scheduler.FXRetentionConfig{
				Log:       c.log,
				Retention: svc.retention,
				Locker:    svc.locker,
				Timeout:   timeout,
			})

			s := scheduler.New(c.log)
			if once {
				return s.RunNow(job)
			}
			if err := s.AddJob(c.cfg.FXAuditSchedule, job); err != nil {
				return domain.NewValidationError(domain.ErrInvalidInput, "FX_AUDIT_SCHEDULE", "%v", err)
			}

			var metricsErr chan error
			if c.cfg.MetricsAddr != "" && svc.metrics != nil {
				metricsErr = make(chan error, 1)
				go func() {
					metricsErr <- metrics.Serve(cmd.Context(), c.cfg.MetricsAddr, svc.metrics, c.log)
				}()
			}

			s.Start()
			c.log.Info().Str("schedule", c.cfg.FXAuditSchedule).Msg("scheduler started")

			var serveErr error
			select {
			case <-cmd.Context().Done():
				if metricsErr != nil {
					serveErr = <-metricsErr
				}
			case serveErr = <-metricsErr:
			}
			s.Stop()
			c.log.Info().Msg("scheduler stopped")
			return serveErr
		},
	}
	run.Flags().BoolVar(&once, "once", false, "Run the job once and exit")
	run.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "Upper bound for a single run")

	cmd.AddCommand(run)
	return cmd
}

func (c *cli) migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postgres.RunMigrations(c.cfg.DatabaseURL, c.cfg.MigrationsPath, c.log)
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postgres.RunMigrationsDown(c.cfg.DatabaseURL, c.cfg.MigrationsPath, c.log)
		},
	}

	cmd.AddCommand(up, down)
	return cmd
}
