// Package scheduler repeats the forecast ETL run on a fixed interval.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/couchcryptid/forecast-etl/internal/observability"
	"github.com/couchcryptid/forecast-etl/internal/pipeline"
)

// Runner performs one ETL pass.
type Runner interface {
	RunOnce(ctx context.Context) (pipeline.Report, error)
}

// Scheduler triggers Runner.RunOnce every interval. The first run fires as
// soon as the scheduler starts and runs never overlap.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	interval  time.Duration
	logger    *slog.Logger
	metrics   *observability.Metrics
	cancel    context.CancelFunc
}

// New creates a Scheduler. interval must be positive.
func New(runner Runner, interval time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		runner:    runner,
		interval:  interval,
		logger:    logger,
		metrics:   metrics,
	}
}

// Start schedules the ETL job and starts the scheduler in the background.
// Runs receive a context derived from ctx that is cancelled by Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("schedule interval must be positive, got %s", s.interval)
	}

	jobCtx, cancel := context.WithCancel(ctx)
	if _, err := s.scheduler.Every(s.interval).Do(s.runJob, jobCtx); err != nil {
		cancel()
		return fmt.Errorf("schedule etl job: %w", err)
	}
	s.cancel = cancel

	s.scheduler.StartAsync()
	s.metrics.SchedulerRunning.Set(1)
	s.logger.Info("scheduler started", "interval", s.interval)
	return nil
}

// Stop cancels any in-flight run and stops future runs.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.scheduler.Stop()
	s.metrics.SchedulerRunning.Set(0)
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runJob(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	report, err := s.runner.RunOnce(ctx)
	if err != nil {
		// RunOnce already logged the failure; the next tick retries.
		s.logger.Debug("scheduled run failed", "run_id", report.RunID, "next_in", s.interval)
		return
	}
	s.logger.Debug("scheduled run finished", "run_id", report.RunID, "outcome", report.Outcome)
}
