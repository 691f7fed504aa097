package domain

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// snapshotValidator checks required snapshot fields. Field names in errors use
// JSON tags so they read like the API payload ("main.temp").
var snapshotValidator = newSnapshotValidator()

func newSnapshotValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// NormalizeForecast converts every snapshot, preserving order. The first
// malformed snapshot fails the whole batch. A nil location means time.Local.
func NormalizeForecast(snapshots []RawSnapshot, loc *time.Location) ([]NormalizedRecord, error) {
	records := make([]NormalizedRecord, 0, len(snapshots))
	for i := range snapshots {
		rec, err := NormalizeSnapshot(i, snapshots[i], loc)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// NormalizeSnapshot converts one snapshot. index is only used for error reporting.
func NormalizeSnapshot(index int, s RawSnapshot, loc *time.Location) (NormalizedRecord, error) {
	if err := checkRequired(index, s); err != nil {
		return NormalizedRecord{}, err
	}
	if loc == nil {
		loc = time.Local
	}

	cond := s.Weather[0]
	return NormalizedRecord{
		DateTime:           time.Unix(*s.Dt, 0).In(loc),
		TemperatureC:       Celsius(*s.Main.Temp),
		FeelsLikeC:         Celsius(*s.Main.FeelsLike),
		HumidityPct:        *s.Main.Humidity,
		WeatherMain:        *cond.Main,
		WeatherDescription: *cond.Description,
		WindSpeedKPH:       KPH(*s.Wind.Speed),
		WindDirection:      Compass(*s.Wind.Deg),
		CloudinessPct:      *s.Clouds.All,
		RainVolumeMM:       rainVolume(s.Rain),
	}, nil
}

// rainVolume returns the 3-hour rain volume, or 0 when the block or the
// 3h key is absent.
func rainVolume(r *RawRain) float64 {
	if r == nil || r.ThreeHour == nil {
		return 0.0
	}
	return *r.ThreeHour
}

func checkRequired(index int, s RawSnapshot) error {
	if err := snapshotValidator.Struct(s); err != nil {
		return malformed(index, "", err)
	}
	if err := snapshotValidator.Struct(s.Weather[0]); err != nil {
		return malformed(index, "weather[0].", err)
	}
	return nil
}

// malformed reports the first failing field of a validation error, prefixed
// with the path of the struct that was validated.
func malformed(index int, prefix string, err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return &MalformedRecordError{Index: index, Field: prefix + fieldPath(fieldErrs[0].Namespace())}
	}
	return &MalformedRecordError{Index: index, Field: "?"}
}

// fieldPath strips the leading struct name: "RawSnapshot.main.temp" -> "main.temp".
func fieldPath(namespace string) string {
	_, path, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}
	return path
}
