package openweather

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/forecast-etl/internal/config"
	"github.com/couchcryptid/forecast-etl/internal/domain"
	"github.com/couchcryptid/forecast-etl/internal/observability"
)

const (
	testKey           = "test-key"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

const forecastBody = `{
	"cod": "200",
	"cnt": 2,
	"list": [
		{"dt": 1700000000, "main": {"temp": 300.0, "feels_like": 299.0, "humidity": 80},
		 "weather": [{"id": 500, "main": "Rain", "description": "light rain", "icon": "10d"}],
		 "clouds": {"all": 40}, "wind": {"speed": 5.0, "deg": 90, "gust": 7.1},
		 "rain": {"3h": 1.2}, "dt_txt": "2023-11-14 22:00:00"},
		{"dt": 1700010800, "main": {"temp": 298.4, "feels_like": 298.9, "humidity": 85},
		 "weather": [{"id": 803, "main": "Clouds", "description": "broken clouds", "icon": "04n"}],
		 "clouds": {"all": 75}, "wind": {"speed": 4.2, "deg": 120}}
	],
	"city": {"name": "Natal", "country": "BR", "timezone": -10800}
}`

func testClient(baseURL, key string) *Client {
	return &Client{
		apiKey:     key,
		lat:        config.DefaultLatitude,
		lon:        config.DefaultLongitude,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_Extract_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/forecast", r.URL.Path)
		assert.Equal(t, "-5.79", r.URL.Query().Get("lat"))
		assert.Equal(t, "-35.21", r.URL.Query().Get("lon"))
		assert.Equal(t, testKey, r.URL.Query().Get("appid"))
		assert.Empty(t, r.URL.Query().Get("units"), "temperatures must stay in Kelvin")

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(forecastBody))
	}))
	defer srv.Close()

	c := testClient(srv.URL, testKey)
	snapshots, err := c.Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshots, 2)

	first := snapshots[0]
	require.NotNil(t, first.Dt)
	assert.Equal(t, int64(1700000000), *first.Dt)
	assert.Equal(t, 300.0, *first.Main.Temp)
	assert.Equal(t, 80, *first.Main.Humidity)
	assert.Equal(t, "light rain", *first.Weather[0].Description)
	assert.Equal(t, 90.0, *first.Wind.Deg)
	require.NotNil(t, first.Rain)
	assert.Equal(t, 1.2, *first.Rain.ThreeHour)

	assert.Nil(t, snapshots[1].Rain)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.APIRequests.WithLabelValues("2xx")))
}

func TestClient_Extract_MissingAPIKey(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := testClient(srv.URL, "")
	_, err := c.Extract(context.Background())
	require.Error(t, err)

	var srcErr *domain.SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.ErrorIs(t, err, domain.ErrMissingAPIKey)
	assert.False(t, called, "no request should be sent without a key")
}

func TestClient_Extract_NonSuccessStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		class  string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"cod":401,"message":"Invalid API key"}`, "4xx"},
		{"rate limited", http.StatusTooManyRequests, `{"cod":429}`, "4xx"},
		{"server error", http.StatusBadGateway, "bad gateway", "5xx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requests := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				requests++
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := testClient(srv.URL, testKey)
			_, err := c.Extract(context.Background())
			require.Error(t, err)

			var srcErr *domain.SourceError
			require.ErrorAs(t, err, &srcErr)
			assert.Equal(t, tt.status, srcErr.StatusCode)
			assert.Equal(t, tt.body, srcErr.Body)
			assert.Equal(t, 1, requests, "extraction must not retry")
			assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.APIRequests.WithLabelValues(tt.class)))
		})
	}
}

func TestClient_Extract_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"list": [`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, testKey)
	_, err := c.Extract(context.Background())
	require.Error(t, err)

	var srcErr *domain.SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Contains(t, err.Error(), "decode response")
}

func TestClient_Extract_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL, testKey)
	c.httpClient = &http.Client{Timeout: 50 * time.Millisecond}

	_, err := c.Extract(context.Background())
	require.Error(t, err)

	var srcErr *domain.SourceError
	require.True(t, errors.As(err, &srcErr))
	assert.Zero(t, srcErr.StatusCode)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.APIRequests.WithLabelValues("error")))
}

func TestNewClient_UsesConfig(t *testing.T) {
	cfg := &config.Config{
		WeatherAPIKey:  testKey,
		WeatherBaseURL: "http://example.test/data/2.5",
		Latitude:       10.5,
		Longitude:      -20.25,
		HTTPTimeout:    3 * time.Second,
	}
	c := NewClient(cfg, observability.NewMetricsForTesting(), slog.Default())

	assert.Equal(t, 3*time.Second, c.httpClient.Timeout)
	assert.Equal(t, "http://example.test/data/2.5/forecast?appid=test-key&lat=10.5&lon=-20.25", c.forecastURL())
}
