// Command validate checks a pair of forecast fixtures for integrity: the raw
// API payload and the normalized records generated from it. It verifies the
// raw snapshots, re-runs normalization and compares field by field, and checks
// every normalized record fits the weather_data column constraints.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -raw-json data/mock/forecast_raw.json \
//	  -normalized-json data/mock/forecast_normalized.json
package main

import (
	"flag"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/couchcryptid/forecast-etl/internal/domain"
)

// Column widths of weather_data.
const (
	maxWeatherMain        = 50
	maxWeatherDescription = 100
)

const stepInterval = 3 * time.Hour

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	rawJSON := flag.String("raw-json", "", "path to the raw forecast fixture")
	normJSON := flag.String("normalized-json", "", "path to the normalized records fixture")
	tz := flag.String("tz", "UTC", "time zone the normalized fixture was generated in")
	flag.Parse()

	if *rawJSON == "" || *normJSON == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*rawJSON, *normJSON, *tz); code != 0 {
		os.Exit(code)
	}
}

func run(rawPath, normPath, tz string) int {
	fmt.Println("=== Forecast Fixture Validation ===")
	fmt.Println()

	loc, err := time.LoadLocation(tz)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load time zone: %v\n", err)
		return 1
	}

	var forecast domain.RawForecast
	if err := loadJSON(rawPath, &forecast); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load raw fixture: %v\n", err)
		return 1
	}

	var records []domain.NormalizedRecord
	if err := loadJSON(normPath, &records); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load normalized fixture: %v\n", err)
		return 1
	}

	phases := validate(forecast.List, records, loc)

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d raw snapshots, %d normalized\n", len(forecast.List), len(records))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func validate(raw []domain.RawSnapshot, records []domain.NormalizedRecord, loc *time.Location) []*phase {
	return []*phase{
		validateRawSnapshots(raw),
		validateNormalization(raw, records, loc),
		validateSchemaAlignment(records),
	}
}

func loadJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// validateRawSnapshots checks required fields and the 3-hour step cadence.
func validateRawSnapshots(raw []domain.RawSnapshot) *phase {
	p := &phase{name: "Raw snapshot integrity"}
	if len(raw) == 0 {
		p.errorf("raw fixture has no snapshots")
		return p
	}

	var prev *int64
	for i := range raw {
		if _, err := domain.NormalizeSnapshot(i, raw[i], time.UTC); err != nil {
			p.errorf("%v", err)
			continue
		}
		if prev != nil {
			gap := time.Duration(*raw[i].Dt-*prev) * time.Second
			if gap != stepInterval {
				p.errorf("snapshot %d: dt is %s after the previous step, want %s", i, gap, stepInterval)
			}
		}
		prev = raw[i].Dt
	}
	return p
}

// validateNormalization re-runs the domain normalization and diffs the result
// against the fixture.
func validateNormalization(raw []domain.RawSnapshot, records []domain.NormalizedRecord, loc *time.Location) *phase {
	p := &phase{name: "Normalization parity"}
	if len(raw) != len(records) {
		p.errorf("count mismatch: %d raw snapshots, %d normalized records", len(raw), len(records))
	}

	for i := range min(len(raw), len(records)) {
		want, err := domain.NormalizeSnapshot(i, raw[i], loc)
		if err != nil {
			continue // reported by validateRawSnapshots
		}
		got := records[i]
		if !want.DateTime.Equal(got.DateTime) {
			p.errorf("record %d: datetime %s, want %s", i, got.DateTime.Format(time.RFC3339), want.DateTime.Format(time.RFC3339))
		}
		got.DateTime, want.DateTime = time.Time{}, time.Time{}
		if diff := cmp.Diff(want, got); diff != "" {
			p.errorf("record %d mismatch (-want +got):\n%s", i, diff)
		}
	}
	return p
}

// validateSchemaAlignment checks each record fits the weather_data columns.
func validateSchemaAlignment(records []domain.NormalizedRecord) *phase {
	p := &phase{name: "Schema alignment (weather_data)"}
	compass := domain.CompassPoints()
	for i, r := range records {
		if r.DateTime.IsZero() {
			p.errorf("record %d: missing datetime", i)
		}
		if !slices.Contains(compass, r.WindDirection) {
			p.errorf("record %d: wind_direction %q is not a compass point", i, r.WindDirection)
		}
		if r.HumidityPct < 0 || r.HumidityPct > 100 {
			p.errorf("record %d: humidity %d outside 0..100", i, r.HumidityPct)
		}
		if r.CloudinessPct < 0 || r.CloudinessPct > 100 {
			p.errorf("record %d: cloudiness %d outside 0..100", i, r.CloudinessPct)
		}
		if r.RainVolumeMM < 0 {
			p.errorf("record %d: negative rain volume %.2f", i, r.RainVolumeMM)
		}
		if r.WeatherMain == "" || len(r.WeatherMain) > maxWeatherMain {
			p.errorf("record %d: weather_main length %d outside 1..%d", i, len(r.WeatherMain), maxWeatherMain)
		}
		if len(r.WeatherDescription) > maxWeatherDescription {
			p.errorf("record %d: weather_description length %d exceeds %d", i, len(r.WeatherDescription), maxWeatherDescription)
		}
	}
	return p
}
