package domain

import "math"

// kelvinOffset is 0 °C expressed in Kelvin.
const kelvinOffset = 273.15

// mpsToKPH converts meters per second to kilometers per hour.
const mpsToKPH = 3.6

// compassPoints is ordered clockwise from north; index i covers i*45° ± 22.5°.
var compassPoints = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// CompassPoints returns the eight wind direction labels in clockwise order.
func CompassPoints() []string {
	return compassPoints[:]
}

// Round rounds half away from zero. Every unit conversion uses it.
func Round(x float64) float64 {
	return math.Round(x)
}

// Celsius converts Kelvin to whole degrees Celsius.
func Celsius(kelvin float64) float64 {
	return Round(kelvin - kelvinOffset)
}

// KPH converts meters per second to whole kilometers per hour.
func KPH(mps float64) float64 {
	return Round(mps * mpsToKPH)
}

// Compass maps a direction in degrees to the nearest of the eight compass
// points. Values outside [0, 360) wrap around.
func Compass(degrees float64) string {
	idx := int(Round(degrees/45)) % len(compassPoints)
	if idx < 0 {
		idx += len(compassPoints)
	}
	return compassPoints[idx]
}
