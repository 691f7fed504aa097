// Command genmock builds forecast fixtures for local runs and tests. It either
// synthesizes a deterministic 5-day forecast or reads a captured API response,
// then writes the raw payload alongside the records the domain package
// normalizes it into, so the expected output always matches real pipeline
// behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -raw-out data/mock/forecast_raw.json \
//	  -normalized-out data/mock/forecast_normalized.json
//
//	go run ./cmd/genmock -in captured_forecast.json -tz America/Fortaleza \
//	  -raw-out ... -normalized-out ...
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"github.com/couchcryptid/forecast-etl/internal/domain"
)

// baseDate is the first forecast step of a synthesized payload.
var baseDate = time.Date(2024, time.April, 26, 0, 0, 0, 0, time.UTC)

const (
	stepsPerForecast = 40 // 5 days at 3-hour resolution
	stepSeconds      = 3 * 60 * 60
)

type condition struct {
	main        string
	description string
	rainMM      float64
}

// conditions cycles through a plausible coastal tropical pattern.
var conditions = []condition{
	{"Clear", "clear sky", 0},
	{"Clouds", "few clouds", 0},
	{"Clouds", "scattered clouds", 0},
	{"Rain", "light rain", 0.6},
	{"Clouds", "broken clouds", 0},
	{"Rain", "moderate rain", 3.4},
	{"Clouds", "overcast clouds", 0},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	in := flag.String("in", "", "captured forecast response to normalize (default: synthesize one)")
	rawOut := flag.String("raw-out", "", "output path for the raw forecast fixture")
	normOut := flag.String("normalized-out", "", "output path for the normalized records fixture")
	tz := flag.String("tz", "UTC", "IANA time zone the normalized timestamps are rendered in")
	flag.Parse()

	if *rawOut == "" || *normOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -raw-out, -normalized-out")
	}

	loc, err := time.LoadLocation(*tz)
	if err != nil {
		return fmt.Errorf("load time zone %q: %w", *tz, err)
	}

	var forecast domain.RawForecast
	if *in != "" {
		data, err := os.ReadFile(*in)
		if err != nil {
			return fmt.Errorf("read captured forecast: %w", err)
		}
		if err := json.Unmarshal(data, &forecast); err != nil {
			return fmt.Errorf("decode captured forecast: %w", err)
		}
	} else {
		forecast = synthesizeForecast(baseDate, stepsPerForecast)
	}

	records, err := domain.NormalizeForecast(forecast.List, loc)
	if err != nil {
		return fmt.Errorf("normalize forecast: %w", err)
	}

	if err := writeJSON(*rawOut, forecast); err != nil {
		return fmt.Errorf("writing raw fixture: %w", err)
	}
	log.Printf("wrote raw fixture: %s (%d snapshots)", *rawOut, len(forecast.List))

	if err := writeJSON(*normOut, records); err != nil {
		return fmt.Errorf("writing normalized fixture: %w", err)
	}
	log.Printf("wrote normalized fixture: %s (%d records)", *normOut, len(records))

	printStats(records)
	return nil
}

// synthesizeForecast builds n consecutive 3-hour snapshots starting at start.
// Temperature follows a daily cycle peaking mid-afternoon.
func synthesizeForecast(start time.Time, n int) domain.RawForecast {
	list := make([]domain.RawSnapshot, n)
	for i := range list {
		at := start.Add(time.Duration(i*stepSeconds) * time.Second)
		phase := 2 * math.Pi * (float64(at.Hour()) - 9) / 24
		temp := 300.15 + 3*math.Sin(phase)
		c := conditions[i%len(conditions)]

		snap := domain.RawSnapshot{
			Dt: ptr(at.Unix()),
			Main: &domain.RawMain{
				Temp:      ptr(temp),
				FeelsLike: ptr(temp + 1.5),
				Humidity:  ptr(70 + (i*7)%25),
			},
			Weather: []domain.RawCondition{{Main: ptr(c.main), Description: ptr(c.description)}},
			Wind: &domain.RawWind{
				Speed: ptr(3.5 + float64(i%5)*0.8),
				Deg:   ptr(float64((90 + i*17) % 360)),
			},
			Clouds: &domain.RawClouds{All: ptr((i * 13) % 101)},
		}
		if c.rainMM > 0 {
			snap.Rain = &domain.RawRain{ThreeHour: ptr(c.rainMM)}
		}
		list[i] = snap
	}
	return domain.RawForecast{
		List: list,
		City: domain.RawCity{Name: "Natal", Country: "BR", Timezone: -10800},
	}
}

func ptr[T any](v T) *T { return &v }

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(records []domain.NormalizedRecord) {
	if len(records) == 0 {
		return
	}
	conditionCounts := map[string]int{}
	minTemp, maxTemp := records[0].TemperatureC, records[0].TemperatureC
	var rain float64
	for _, r := range records {
		conditionCounts[r.WeatherMain]++
		minTemp = math.Min(minTemp, r.TemperatureC)
		maxTemp = math.Max(maxTemp, r.TemperatureC)
		rain += r.RainVolumeMM
	}
	log.Printf("window: %s .. %s", records[0].DateTime.Format(time.RFC3339), records[len(records)-1].DateTime.Format(time.RFC3339))
	log.Printf("temperature: %.0f..%.0f C, total rain: %.1f mm", minTemp, maxTemp, rain)
	log.Printf("conditions: %v", conditionCounts)
}
