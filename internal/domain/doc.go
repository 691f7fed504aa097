// Package domain models OpenWeatherMap 5-day forecast data and its
// normalized, database-ready form.
//
// # Data Source
//
// Forecasts come from the OpenWeatherMap "5 day / 3 hour" endpoint:
//
//	GET https://api.openweathermap.org/data/2.5/forecast?lat=<lat>&lon=<lon>&appid=<key>
//
// The response is a JSON object whose "list" key holds up to 40 snapshots,
// one per 3-hour step. Without a "units" parameter the API reports
// standard units: temperatures in Kelvin and wind speed in meters per second.
//
// # Snapshot Fields
//
//	dt                      Unix timestamp (seconds) of the forecast step
//	main.temp               temperature, Kelvin
//	main.feels_like         perceived temperature, Kelvin
//	main.humidity           relative humidity, integer percent 0–100
//	weather[0].main         short condition group, e.g. "Rain", "Clouds"
//	weather[0].description  condition text, e.g. "light rain"
//	wind.speed              wind speed, m/s
//	wind.deg                meteorological wind direction, degrees 0–360
//	clouds.all              cloud cover, integer percent 0–100
//	rain.3h                 rain volume over the 3-hour step, mm (optional)
//
// The API omits the "rain" block entirely for dry steps, so rain volume is
// the only field that is defaulted (to 0.0). Every other field above is
// required; a snapshot missing one is rejected with [MalformedRecordError].
//
// # Normalization
//
//	Temperature:  °C = K − 273.15, rounded
//	Wind speed:   km/h = m/s × 3.6, rounded
//	Direction:    8-point compass, index = round(deg / 45) mod 8 over
//	              N, NE, E, SE, S, SW, W, NW (so 360° is N again)
//
// All rounding goes through [Round], which rounds half away from zero
// (26.5 → 27, −0.5 → −1).
//
// # Persistence
//
// Normalized records are appended to the weather_data table. Nothing is
// ever updated or deleted, and rows are not deduplicated: running the
// pipeline twice for an overlapping window stores the overlap twice.
package domain
