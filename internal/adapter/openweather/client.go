package openweather

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/couchcryptid/forecast-etl/internal/config"
	"github.com/couchcryptid/forecast-etl/internal/domain"
	"github.com/couchcryptid/forecast-etl/internal/observability"
)

// maxErrorBody caps how much of a failed response is kept in a SourceError.
const maxErrorBody = 512

// Client fetches the 5-day forecast for one fixed coordinate.
// It implements pipeline.Extractor.
type Client struct {
	apiKey     string
	lat        float64
	lon        float64
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a forecast client from the service configuration.
func NewClient(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey:  cfg.WeatherAPIKey,
		lat:     cfg.Latitude,
		lon:     cfg.Longitude,
		baseURL: cfg.WeatherBaseURL,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Extract performs a single GET /forecast call. It returns a *domain.SourceError
// when no API key is configured, the request fails, or the status is not 2xx.
func (c *Client) Extract(ctx context.Context) ([]domain.RawSnapshot, error) {
	if c.apiKey == "" {
		return nil, &domain.SourceError{Err: domain.ErrMissingAPIKey}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.forecastURL(), nil)
	if err != nil {
		return nil, &domain.SourceError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.APIRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.APIRequests.WithLabelValues("error").Inc()
		return nil, &domain.SourceError{Err: fmt.Errorf("forecast request: %w", err)}
	}
	defer resp.Body.Close()

	c.metrics.APIRequests.WithLabelValues(statusClass(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &domain.SourceError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var forecast domain.RawForecast
	if err := json.NewDecoder(resp.Body).Decode(&forecast); err != nil {
		return nil, &domain.SourceError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	c.logger.Debug("forecast fetched",
		"city", forecast.City.Name,
		"country", forecast.City.Country,
		"snapshots", len(forecast.List),
	)
	return forecast.List, nil
}

func (c *Client) forecastURL() string {
	params := url.Values{
		"lat":   {strconv.FormatFloat(c.lat, 'f', -1, 64)},
		"lon":   {strconv.FormatFloat(c.lon, 'f', -1, 64)},
		"appid": {c.apiKey},
	}
	return c.baseURL + "/forecast?" + params.Encode()
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
