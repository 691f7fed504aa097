// Package http serves the liveness, readiness, metrics and last-run endpoints
// used while the ETL runs in scheduled mode.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/forecast-etl/internal/pipeline"
)

// RunReporter exposes the most recent pipeline run.
type RunReporter interface {
	LastReport() (pipeline.Report, bool)
}

// StatusSource is what the server inspects; *pipeline.Pipeline satisfies it.
type StatusSource interface {
	sharedobs.ReadinessChecker
	RunReporter
}

// Server exposes health, readiness, metrics and last-run HTTP endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// /runs/last routes.
func NewServer(addr string, status StatusSource, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(status))
	mux.HandleFunc("GET /runs/last", handleLastRun(status))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type runResponse struct {
	RunID       string    `json:"run_id"`
	Outcome     string    `json:"outcome"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	DurationMS  int64     `json:"duration_ms"`
	Extracted   int       `json:"extracted"`
	Transformed int       `json:"transformed"`
	Inserted    int       `json:"inserted"`
	FailedRows  int       `json:"failed_rows"`
}

func handleLastRun(reporter RunReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		report, ok := reporter.LastReport()
		if !ok {
			sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "no run recorded yet"})
			return
		}
		sharedobs.WriteJSON(w, http.StatusOK, runResponse{
			RunID:       report.RunID,
			Outcome:     string(report.Outcome),
			StartedAt:   report.StartedAt.UTC(),
			FinishedAt:  report.FinishedAt.UTC(),
			DurationMS:  report.Duration().Milliseconds(),
			Extracted:   report.Extracted,
			Transformed: report.Transformed,
			Inserted:    report.Load.Inserted,
			FailedRows:  report.Load.Failed(),
		})
	}
}
