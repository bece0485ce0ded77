package common

import (
	"math"
	"time"
)

// TimestampLayout is how sunrise, sunset and forecast slot times are printed.
const TimestampLayout = "2006-01-02 15:04:05"

// Temperatures is a reading converted to Fahrenheit.
type Temperatures struct {
	Current float64
	High    float64
	Low     float64
}

// KelvinToFahrenheit converts and rounds to two decimal places.
func KelvinToFahrenheit(k float64) float64 {
	return Round2(k*9/5 - 459.67)
}

// ConvertTemps converts an OpenWeatherMap main block (temp, temp_min,
// temp_max in Kelvin).
func ConvertTemps(temp, tempMin, tempMax float64) Temperatures {
	return Temperatures{
		Current: KelvinToFahrenheit(temp),
		High:    KelvinToFahrenheit(tempMax),
		Low:     KelvinToFahrenheit(tempMin),
	}
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatTimestamp renders a Unix UTC timestamp in loc. A nil loc means
// time.Local.
func FormatTimestamp(unix int64, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(unix, 0).In(loc).Format(TimestampLayout)
}
