package weather

import (
	"testing"
	"time"
)

func TestIsAllowed(t *testing.T) {
	now := time.Date(2017, time.January, 30, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		last time.Time
		want bool
	}{
		{name: "never called", last: NeverCalled, want: true},
		{name: "just called", last: now, want: false},
		{name: "inside window", last: now.Add(-9 * time.Minute), want: false},
		{name: "exactly at window", last: now.Add(-DefaultMinInterval), want: false},
		{name: "just past window", last: now.Add(-DefaultMinInterval - time.Nanosecond), want: true},
		{name: "clock went backwards", last: now.Add(time.Hour), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAllowed(tt.last, now, DefaultMinInterval); got != tt.want {
				t.Errorf("IsAllowed(%s, %s) = %v, want %v", tt.last, now, got, tt.want)
			}
		})
	}
}

func TestIsAllowedCustomInterval(t *testing.T) {
	now := time.Unix(1000, 0)
	if !IsAllowed(now.Add(-2*time.Second), now, time.Second) {
		t.Error("expected call to be allowed after 2s with a 1s window")
	}
	if IsAllowed(now.Add(-2*time.Second), now, time.Minute) {
		t.Error("expected call to be limited after 2s with a 1m window")
	}
}

func TestCacheStateEntryDoesNotMutate(t *testing.T) {
	s := NewCacheState()

	e := s.Entry(42)
	if e.CityID != 42 || e.Current != nil || e.Forecast != nil {
		t.Fatalf("expected empty entry for city 42, got %+v", e)
	}
	if len(s.Entries) != 0 {
		t.Fatalf("Entry must not add to the state, got %d entries", len(s.Entries))
	}
}

func TestCacheStateCloneIsIndependent(t *testing.T) {
	s := NewCacheState()
	s.Entries[1] = CityWeatherEntry{CityID: 1, Current: []byte(`{}`)}

	c := s.Clone()
	c.Entries[2] = CityWeatherEntry{CityID: 2}

	if _, ok := s.Entries[2]; ok {
		t.Fatal("mutating the clone changed the original")
	}
	if !c.LastCallTime.Equal(s.LastCallTime) {
		t.Fatal("clone lost the last call time")
	}
}

func TestKindFor(t *testing.T) {
	if KindFor(true) != KindForecast {
		t.Error("expected forecast kind")
	}
	if KindFor(false) != KindCurrent {
		t.Error("expected current kind")
	}
}
