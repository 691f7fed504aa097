package domain

import "time"

// RawForecast is the top-level OpenWeatherMap forecast response.
type RawForecast struct {
	List []RawSnapshot `json:"list"`
	City RawCity       `json:"city"`
}

// RawCity is the location block of the forecast response. Only used for logging.
type RawCity struct {
	Name     string `json:"name"`
	Country  string `json:"country"`
	Timezone int    `json:"timezone"` // offset from UTC in seconds
}

// RawSnapshot is one forecast step as returned by the API. Required fields are
// pointers so a missing field can be told apart from a zero value.
type RawSnapshot struct {
	Dt      *int64         `json:"dt" validate:"required"`
	Main    *RawMain       `json:"main" validate:"required"`
	Weather []RawCondition `json:"weather" validate:"required,min=1"`
	Wind    *RawWind       `json:"wind" validate:"required"`
	Clouds  *RawClouds     `json:"clouds" validate:"required"`
	Rain    *RawRain       `json:"rain,omitempty"`
}

// RawMain holds the thermodynamic block of a snapshot.
type RawMain struct {
	Temp      *float64 `json:"temp" validate:"required"`
	FeelsLike *float64 `json:"feels_like" validate:"required"`
	Humidity  *int     `json:"humidity" validate:"required"`
}

// RawCondition is one entry of the weather array. Only the first is read and
// checked; later entries may be partial.
type RawCondition struct {
	Main        *string `json:"main" validate:"required"`
	Description *string `json:"description" validate:"required"`
}

// RawWind holds wind speed (m/s) and direction (degrees).
type RawWind struct {
	Speed *float64 `json:"speed" validate:"required"`
	Deg   *float64 `json:"deg" validate:"required"`
}

// RawClouds holds cloud cover percentage.
type RawClouds struct {
	All *int `json:"all" validate:"required"`
}

// RawRain holds precipitation volume. The API omits the block on dry steps.
type RawRain struct {
	ThreeHour *float64 `json:"3h,omitempty"`
}

// NormalizedRecord is a snapshot after unit conversion, ready to be stored as
// one weather_data row.
type NormalizedRecord struct {
	DateTime           time.Time `json:"datetime"`
	TemperatureC       float64   `json:"temperature_c"`
	FeelsLikeC         float64   `json:"feels_like_c"`
	HumidityPct        int       `json:"humidity_pct"`
	WeatherMain        string    `json:"weather_main"`
	WeatherDescription string    `json:"weather_description"`
	WindSpeedKPH       float64   `json:"wind_speed_kph"`
	WindDirection      string    `json:"wind_direction"`
	CloudinessPct      int       `json:"cloudiness_pct"`
	RainVolumeMM       float64   `json:"rain_volume_mm"`
}
