package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/forecast-etl/internal/config"
)

func TestNewLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	tests := []struct {
		name, level, format string
		wantLevel           slog.Level
		wantText            bool
	}{
		{"json info", "info", "json", slog.LevelInfo, false},
		{"text debug", "DEBUG", "text", slog.LevelDebug, true},
		{"warning alias", "warning", "json", slog.LevelWarn, false},
		{"unknown level", "verbose", "", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(&config.Config{LogLevel: tt.level, LogFormat: tt.format})
			ctx := context.Background()

			assert.True(t, logger.Enabled(ctx, tt.wantLevel))
			assert.False(t, logger.Enabled(ctx, tt.wantLevel-1))
			if tt.wantText {
				assert.IsType(t, &slog.TextHandler{}, logger.Handler())
			} else {
				assert.IsType(t, &slog.JSONHandler{}, logger.Handler())
			}
			assert.Same(t, logger, slog.Default())
		})
	}
}

func TestNewMetricsForTesting_Unregistered(t *testing.T) {
	m1 := NewMetricsForTesting()
	m2 := NewMetricsForTesting()

	m1.RunsTotal.WithLabelValues("complete").Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(m1.RunsTotal.WithLabelValues("complete")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m2.RunsTotal.WithLabelValues("complete")))

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(m1.RowsInserted))
}
