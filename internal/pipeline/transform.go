package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/forecast-etl/internal/domain"
)

// ForecastTransformer implements Transformer using the domain normalization rules.
type ForecastTransformer struct {
	loc    *time.Location
	logger *slog.Logger
}

// NewTransformer creates a ForecastTransformer. Timestamps are rendered in loc;
// nil means the process local time zone.
func NewTransformer(loc *time.Location, logger *slog.Logger) *ForecastTransformer {
	return &ForecastTransformer{loc: loc, logger: logger}
}

func (t *ForecastTransformer) Transform(_ context.Context, snapshots []domain.RawSnapshot) ([]domain.NormalizedRecord, error) {
	records, err := domain.NormalizeForecast(snapshots, t.loc)
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		t.logger.Debug("snapshots normalized",
			"records", len(records),
			"first", records[0].DateTime,
			"last", records[len(records)-1].DateTime,
		)
	}
	return records, nil
}
