package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/forecast-etl/internal/config"
	"github.com/couchcryptid/forecast-etl/internal/domain"
	"github.com/couchcryptid/forecast-etl/internal/observability"
)

// TableName is the destination table for normalized records.
const TableName = "weather_data"

const createTableSQL = `CREATE TABLE IF NOT EXISTS weather_data (
    id SERIAL PRIMARY KEY,
    datetime TIMESTAMP,
    temperature FLOAT,
    feels_like FLOAT,
    humidity INTEGER,
    weather_main VARCHAR(50),
    weather_description VARCHAR(100),
    wind_speed FLOAT,
    wind_direction VARCHAR(2),
    cloudiness INTEGER,
    rain_volume FLOAT
)`

const insertSQL = `INSERT INTO weather_data (
    datetime, temperature, feels_like, humidity,
    weather_main, weather_description, wind_speed,
    wind_direction, cloudiness, rain_volume
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// Store loads normalized records into weather_data.
// It implements pipeline.Loader.
type Store struct {
	exec    Executor
	batch   bool
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewStore creates a Store. mode is config.LoadModeRow or config.LoadModeBatch.
func NewStore(exec Executor, mode string, metrics *observability.Metrics, logger *slog.Logger) *Store {
	return &Store{
		exec:    exec,
		batch:   mode == config.LoadModeBatch,
		metrics: metrics,
		logger:  logger,
	}
}

// EnsureSchema creates weather_data if it does not exist. Safe to repeat.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if err := s.exec.Execute(ctx, Statement{SQL: createTableSQL}); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Load inserts records in input order.
//
// In row mode every insert commits on its own: a failed row is logged and
// recorded in the result, and the remaining rows are still attempted. The
// returned error is non-nil only when ctx is done.
//
// In batch mode all inserts share one transaction, so the result is either
// every row or none, and a failure is also returned as an error.
func (s *Store) Load(ctx context.Context, records []domain.NormalizedRecord) (domain.LoadResult, error) {
	if s.batch {
		return s.loadBatch(ctx, records)
	}
	return s.loadRows(ctx, records)
}

func (s *Store) loadRows(ctx context.Context, records []domain.NormalizedRecord) (domain.LoadResult, error) {
	var result domain.LoadResult
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("load interrupted after %d of %d rows: %w", result.Attempted, len(records), err)
		}

		result.Attempted++
		if err := s.exec.Execute(ctx, insertStatement(rec)); err != nil {
			s.logger.Warn("insert failed, continuing with next row",
				"error", err,
				"row", i,
				"datetime", rec.DateTime,
			)
			s.metrics.RowsFailed.Inc()
			result.Failures = append(result.Failures, domain.RowFailure{Index: i, DateTime: rec.DateTime, Err: err})
			continue
		}
		s.metrics.RowsInserted.Inc()
		result.Inserted++
	}
	return result, nil
}

func (s *Store) loadBatch(ctx context.Context, records []domain.NormalizedRecord) (domain.LoadResult, error) {
	result := domain.LoadResult{Attempted: len(records)}
	if len(records) == 0 {
		return result, nil
	}

	stmts := make([]Statement, len(records))
	for i := range records {
		stmts[i] = insertStatement(records[i])
	}

	if err := s.exec.ExecuteTx(ctx, stmts); err != nil {
		s.logger.Error("batch insert rolled back", "error", err, "rows", len(records))
		s.metrics.RowsFailed.Add(float64(len(records)))
		for i, rec := range records {
			result.Failures = append(result.Failures, domain.RowFailure{Index: i, DateTime: rec.DateTime, Err: err})
		}
		return result, fmt.Errorf("batch load: %w", err)
	}

	s.metrics.RowsInserted.Add(float64(len(records)))
	result.Inserted = len(records)
	return result, nil
}

func insertStatement(rec domain.NormalizedRecord) Statement {
	return Statement{
		SQL: insertSQL,
		Args: []any{
			rec.DateTime,
			rec.TemperatureC,
			rec.FeelsLikeC,
			rec.HumidityPct,
			rec.WeatherMain,
			rec.WeatherDescription,
			rec.WindSpeedKPH,
			rec.WindDirection,
			rec.CloudinessPct,
			rec.RainVolumeMM,
		},
	}
}
