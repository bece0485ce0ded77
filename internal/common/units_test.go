package common

import (
	"testing"
	"time"
)

func TestKelvinToFahrenheit(t *testing.T) {
	tests := []struct {
		kelvin float64
		want   float64
	}{
		{kelvin: 280.32, want: 44.91},
		{kelvin: 279.15, want: 42.8},
		{kelvin: 281.15, want: 46.4},
		{kelvin: 273.15, want: 32},
		{kelvin: 0, want: -459.67},
	}

	for _, tt := range tests {
		if got := KelvinToFahrenheit(tt.kelvin); got != tt.want {
			t.Errorf("KelvinToFahrenheit(%v) = %v, want %v", tt.kelvin, got, tt.want)
		}
	}
}

func TestConvertTemps(t *testing.T) {
	got := ConvertTemps(280.32, 279.15, 281.15)
	want := Temperatures{Current: 44.91, High: 46.4, Low: 42.8}
	if got != want {
		t.Fatalf("ConvertTemps = %+v, want %+v", got, want)
	}
}

func TestFormatTimestamp(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)

	if got := FormatTimestamp(1485762037, est); got != "2017-01-30 02:40:37" {
		t.Fatalf("FormatTimestamp in EST = %q", got)
	}
	if got := FormatTimestamp(1485762037, time.UTC); got != "2017-01-30 07:40:37" {
		t.Fatalf("FormatTimestamp in UTC = %q", got)
	}
}
