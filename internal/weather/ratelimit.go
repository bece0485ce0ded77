package weather

import "time"

// DefaultMinInterval is the minimum time between two calls to the weather
// API, whichever city or endpoint is requested.
const DefaultMinInterval = 10 * time.Minute

// IsAllowed reports whether a remote call may be made at now. The window is
// strict: a call exactly minInterval after the last one is still limited.
func IsAllowed(lastCallTime, now time.Time, minInterval time.Duration) bool {
	return now.Sub(lastCallTime) > minInterval
}
