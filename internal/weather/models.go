package weather

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"
)

// Kind selects which OpenWeatherMap endpoint is queried and which slot of a
// CityWeatherEntry the payload lands in.
type Kind string

const (
	KindCurrent  Kind = "current"
	KindForecast Kind = "forecast"
)

// KindFor maps the CLI forecast flag to a Kind.
func KindFor(forecast bool) Kind {
	if forecast {
		return KindForecast
	}
	return KindCurrent
}

// CityRecord is one row of the static city directory.
type CityRecord struct {
	Name string `json:"name"`
	ID   int64  `json:"id"`
}

// CityWeatherEntry holds the most recent payloads fetched for a city.
// A nil slot means nothing has been cached for that kind yet.
type CityWeatherEntry struct {
	CityID   int64           `json:"city_id"`
	Current  json.RawMessage `json:"current,omitempty"`
	Forecast json.RawMessage `json:"forecast,omitempty"`
}

// Payload returns the slot selected by kind.
func (e CityWeatherEntry) Payload(kind Kind) json.RawMessage {
	if kind == KindForecast {
		return e.Forecast
	}
	return e.Current
}

// withPayload returns a copy of e with only the slot for kind replaced.
func (e CityWeatherEntry) withPayload(kind Kind, payload json.RawMessage) CityWeatherEntry {
	switch kind {
	case KindForecast:
		e.Forecast = payload
	default:
		e.Current = payload
	}
	return e
}

// NeverCalled is the last call time of a store that has never reached the
// remote API. It is far enough in the past that the first fetch is allowed.
var NeverCalled = time.Date(1988, time.June, 6, 0, 0, 0, 0, time.UTC)

// CacheState is the persisted aggregate: the global last call time plus every
// cached city entry.
type CacheState struct {
	LastCallTime time.Time                  `json:"last_call_time"`
	Entries      map[int64]CityWeatherEntry `json:"entries"`
}

// NewCacheState returns the state of a store that was just created.
func NewCacheState() CacheState {
	return CacheState{
		LastCallTime: NeverCalled,
		Entries:      make(map[int64]CityWeatherEntry),
	}
}

// Entry returns the entry for cityID, or an empty one if the city has not
// been fetched yet. The state is not modified.
func (s CacheState) Entry(cityID int64) CityWeatherEntry {
	if e, ok := s.Entries[cityID]; ok {
		return e
	}
	return CityWeatherEntry{CityID: cityID}
}

// Clone returns a copy whose entries map can be mutated independently.
func (s CacheState) Clone() CacheState {
	entries := make(map[int64]CityWeatherEntry, len(s.Entries))
	maps.Copy(entries, s.Entries)
	return CacheState{
		LastCallTime: s.LastCallTime,
		Entries:      entries,
	}
}

// String is used in log lines.
func (s CacheState) String() string {
	return fmt.Sprintf("last call %s, %d cities", s.LastCallTime.UTC().Format(time.RFC3339), len(s.Entries))
}
