package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "forecast_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	RunsTotal          *prometheus.CounterVec // labels: outcome={complete,partial,failed}
	RunDuration        prometheus.Histogram
	LastSuccessfulRun  prometheus.Gauge
	SchedulerRunning   prometheus.Gauge
	SnapshotsExtracted prometheus.Counter
	RecordsTransformed prometheus.Counter
	TransformErrors    prometheus.Counter

	// Load metrics.
	RowsInserted prometheus.Counter
	RowsFailed   prometheus.Counter

	// Forecast API metrics.
	APIRequests        *prometheus.CounterVec // labels: status={2xx,4xx,5xx,error}
	APIRequestDuration prometheus.Histogram

	// Kafka fan-out metrics.
	RecordsPublished prometheus.Counter
	PublishErrors    prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// build as many instances as they need without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete extract-transform-load run.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		LastSuccessfulRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_successful_run_timestamp_seconds",
			Help:      "Unix time of the last run that inserted every record.",
		}),
		SchedulerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_running",
			Help:      "1 when the periodic scheduler is active, 0 otherwise.",
		}),
		SnapshotsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_extracted_total",
			Help:      "Total forecast snapshots returned by the API.",
		}),
		RecordsTransformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_transformed_total",
			Help:      "Total snapshots normalized into records.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Total runs aborted by a malformed snapshot.",
		}),
		RowsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_inserted_total",
			Help:      "Total weather_data rows committed.",
		}),
		RowsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_failed_total",
			Help:      "Total records that could not be inserted.",
		}),
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Forecast API requests by status class.",
		}, []string{"status"}),
		APIRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Forecast API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_published_total",
			Help:      "Total normalized records written to Kafka.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Total failed Kafka publish attempts.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RunsTotal,
		m.RunDuration,
		m.LastSuccessfulRun,
		m.SchedulerRunning,
		m.SnapshotsExtracted,
		m.RecordsTransformed,
		m.TransformErrors,
		m.RowsInserted,
		m.RowsFailed,
		m.APIRequests,
		m.APIRequestDuration,
		m.RecordsPublished,
		m.PublishErrors,
	}
}
