package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	httpadapter "github.com/couchcryptid/forecast-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/forecast-etl/internal/adapter/kafka"
	"github.com/couchcryptid/forecast-etl/internal/adapter/openweather"
	"github.com/couchcryptid/forecast-etl/internal/adapter/postgres"
	"github.com/couchcryptid/forecast-etl/internal/config"
	"github.com/couchcryptid/forecast-etl/internal/domain"
	"github.com/couchcryptid/forecast-etl/internal/observability"
	"github.com/couchcryptid/forecast-etl/internal/pipeline"
	"github.com/couchcryptid/forecast-etl/internal/scheduler"
)

// Process exit codes.
const (
	exitComplete = 0
	exitFailed   = 1
	exitPartial  = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadFromEnv(sharedcfg.EnvOrDefault("ENV_FILE", ".env"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return exitFailed
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to configure database pool", "error", err)
		return exitFailed
	}
	defer db.Close()

	extractor := openweather.NewClient(cfg, metrics, logger)
	transformer := pipeline.NewTransformer(cfg.Location, logger)
	store := postgres.NewStore(db, cfg.LoadMode, metrics, logger)

	var publisher pipeline.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		publisher = writer
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	p := pipeline.New(extractor, transformer, store, publisher, logger, metrics)

	if cfg.ScheduleInterval == 0 {
		report, err := p.RunOnce(ctx)
		return exitCode(report, err)
	}
	return runScheduled(ctx, cfg, p, logger, metrics)
}

// runScheduled serves the status endpoints and repeats the pipeline until a
// shutdown signal arrives.
func runScheduled(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, logger *slog.Logger, metrics *observability.Metrics) int {
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	sched := scheduler.New(p, cfg.ScheduleInterval, logger, metrics)
	if err := sched.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		return exitFailed
	}

	<-ctx.Done()
	logger.Info("shutting down")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return exitComplete
}

// exitCode maps a single run to the process exit status.
func exitCode(report pipeline.Report, err error) int {
	if err != nil {
		return exitFailed
	}
	switch report.Outcome {
	case domain.OutcomeComplete:
		return exitComplete
	case domain.OutcomePartial:
		return exitPartial
	default:
		return exitFailed
	}
}
