package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/forecast-etl/internal/domain"
	"github.com/couchcryptid/forecast-etl/internal/observability"
)

// ErrNoRowsInserted is returned when a load attempted rows but none were committed.
var ErrNoRowsInserted = errors.New("no rows inserted")

// Extractor fetches the raw forecast.
type Extractor interface {
	Extract(ctx context.Context) ([]domain.RawSnapshot, error)
}

// Transformer normalizes raw snapshots, preserving order.
type Transformer interface {
	Transform(ctx context.Context, snapshots []domain.RawSnapshot) ([]domain.NormalizedRecord, error)
}

// Loader persists normalized records.
type Loader interface {
	EnsureSchema(ctx context.Context) error
	Load(ctx context.Context, records []domain.NormalizedRecord) (domain.LoadResult, error)
}

// Publisher fans inserted records out to a secondary sink. Optional.
type Publisher interface {
	Publish(ctx context.Context, runID string, records []domain.NormalizedRecord) error
}

// Report describes one pipeline run.
type Report struct {
	RunID       string
	StartedAt   time.Time
	FinishedAt  time.Time
	Extracted   int
	Transformed int
	Load        domain.LoadResult
	Outcome     domain.Outcome
}

// Duration returns how long the run took.
func (r Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Pipeline runs extract, transform and load in sequence.
type Pipeline struct {
	extractor   Extractor
	transformer Transformer
	loader      Loader
	publisher   Publisher
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	last        atomic.Pointer[Report]
}

// New creates a Pipeline. publisher may be nil.
func New(e Extractor, t Transformer, l Loader, pub Publisher, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		publisher:   pub,
		logger:      logger,
		metrics:     metrics,
	}
}

// CheckReadiness returns nil once a run has finished as complete or partial,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// LastReport returns the report of the most recent run, if any.
func (p *Pipeline) LastReport() (Report, bool) {
	r := p.last.Load()
	if r == nil {
		return Report{}, false
	}
	return *r, true
}

// RunOnce performs one extract-transform-load pass.
//
// The error is nil for complete and partial runs; inspect Report.Outcome to
// tell them apart. Failed runs return the cause, wrapped with the stage name.
func (p *Pipeline) RunOnce(ctx context.Context) (Report, error) {
	report := Report{
		RunID:     uuid.NewString(),
		StartedAt: clock.Now(),
		Outcome:   domain.OutcomeFailed,
	}
	logger := p.logger.With("run_id", report.RunID)
	logger.Info("etl run started")

	err := p.run(ctx, logger, &report)
	report.FinishedAt = clock.Now()
	if err != nil {
		report.Outcome = domain.OutcomeFailed
	}

	p.finish(logger, report, err)
	return report, err
}

func (p *Pipeline) run(ctx context.Context, logger *slog.Logger, report *Report) error {
	logger.Info("extracting forecast")
	snapshots, err := p.extractor.Extract(ctx)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	report.Extracted = len(snapshots)
	p.metrics.SnapshotsExtracted.Add(float64(len(snapshots)))

	logger.Info("transforming forecast", "snapshots", len(snapshots))
	records, err := p.transformer.Transform(ctx, snapshots)
	if err != nil {
		p.metrics.TransformErrors.Inc()
		return fmt.Errorf("transform: %w", err)
	}
	report.Transformed = len(records)
	p.metrics.RecordsTransformed.Add(float64(len(records)))

	logger.Info("loading records", "records", len(records))
	if err := p.loader.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("load: %w", err)
	}
	result, err := p.loader.Load(ctx, records)
	report.Load = result
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	report.Outcome = result.Outcome()
	if report.Outcome == domain.OutcomeFailed {
		return fmt.Errorf("load: %w: %d of %d rows failed", ErrNoRowsInserted, result.Failed(), result.Attempted)
	}

	p.publish(ctx, logger, report.RunID, records, result)
	return nil
}

// publish forwards the rows that were actually inserted. Failures are logged
// and counted but never change the run outcome.
func (p *Pipeline) publish(ctx context.Context, logger *slog.Logger, runID string, records []domain.NormalizedRecord, result domain.LoadResult) {
	if p.publisher == nil || result.Inserted == 0 {
		return
	}

	inserted := records
	if len(result.Failures) > 0 {
		failed := make(map[int]bool, len(result.Failures))
		for _, f := range result.Failures {
			failed[f.Index] = true
		}
		inserted = make([]domain.NormalizedRecord, 0, result.Inserted)
		for i := range records {
			if !failed[i] {
				inserted = append(inserted, records[i])
			}
		}
	}

	if err := p.publisher.Publish(ctx, runID, inserted); err != nil {
		logger.Warn("publish records failed", "error", err, "records", len(inserted))
		p.metrics.PublishErrors.Inc()
		return
	}
	p.metrics.RecordsPublished.Add(float64(len(inserted)))
}

func (p *Pipeline) finish(logger *slog.Logger, report Report, err error) {
	p.last.Store(&report)
	p.metrics.RunsTotal.WithLabelValues(string(report.Outcome)).Inc()
	p.metrics.RunDuration.Observe(report.Duration().Seconds())

	attrs := []any{
		"outcome", report.Outcome,
		"extracted", report.Extracted,
		"transformed", report.Transformed,
		"inserted", report.Load.Inserted,
		"failed_rows", report.Load.Failed(),
		"duration", report.Duration(),
	}

	switch report.Outcome {
	case domain.OutcomeComplete:
		p.ready.Store(true)
		p.metrics.LastSuccessfulRun.Set(float64(report.FinishedAt.Unix()))
		logger.Info("etl run completed", attrs...)
	case domain.OutcomePartial:
		p.ready.Store(true)
		logger.Warn("etl run completed with failed rows", attrs...)
	default:
		logger.Error("etl run failed", append(attrs, "error", err)...)
	}
}
