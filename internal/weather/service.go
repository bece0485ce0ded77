package weather

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// Option customises a Client.
type Option func(*Client)

// WithMinInterval overrides DefaultMinInterval.
func WithMinInterval(d time.Duration) Option {
	return func(c *Client) { c.minInterval = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithLastCallOverride makes the rate limit decision use t instead of the
// persisted last call time. The persisted value is still advanced on success.
func WithLastCallOverride(t time.Time) Option {
	return func(c *Client) { c.lastCallOverride = &t }
}

// Client resolves a city, gates the request through the rate limit, fetches
// from the provider and keeps the persistent cache current. It is not safe
// for concurrent use.
type Client struct {
	directory *Directory
	provider  Provider
	store     Store

	minInterval      time.Duration
	now              func() time.Time
	lastCallOverride *time.Time

	// state mirrors the store for the lifetime of the client; nil until the
	// first request that needs it.
	state *CacheState
}

// NewClient creates a new Client.
func NewClient(directory *Directory, provider Provider, store Store, opts ...Option) *Client {
	c := &Client{
		directory:   directory,
		provider:    provider,
		store:       store,
		minInterval: DefaultMinInterval,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetWeather makes sure the cache holds the freshest payload the rate limit
// allows for cityName and returns the resolved city id. The caller reads the
// payload back with Entry. A rate-limited request is not an error; the id is
// returned and whatever was cached before stays in place.
func (c *Client) GetWeather(ctx context.Context, cityName string, kind Kind) (int64, error) {
	cityID, ok := c.directory.Resolve(cityName)
	if !ok {
		return 0, &CityNotFoundError{Name: cityName}
	}

	state, err := c.load(ctx)
	if err != nil {
		return 0, err
	}

	now := c.now()
	last := state.LastCallTime
	if c.lastCallOverride != nil {
		last = *c.lastCallOverride
	}
	if !IsAllowed(last, now, c.minInterval) {
		log.Printf("INFO: rate limited; last call at %s, serving cached %s for city %d",
			last.Format(time.RFC3339), kind, cityID)
		return cityID, nil
	}

	runID := uuid.NewString()
	log.Printf("DEBUG: fetch %s: %s for city %d (%s) via %s", runID, kind, cityID, cityName, c.provider.Name())

	payload, err := c.provider.Fetch(ctx, kind, cityID)
	if err != nil {
		log.Printf("ERROR: fetch %s failed: %v", runID, err)
		return 0, fmt.Errorf("%w: %w", ErrRemoteFetchFailed, err)
	}

	next := state.Clone()
	next.Entries[cityID] = state.Entry(cityID).withPayload(kind, payload)
	if now.After(next.LastCallTime) {
		next.LastCallTime = now
	}

	if err := c.store.Save(ctx, next); err != nil {
		return 0, fmt.Errorf("save weather cache: %w", err)
	}
	c.state = &next

	log.Printf("DEBUG: fetch %s stored; %s", runID, next)
	return cityID, nil
}

// Entry returns the cached entry for cityID. It is empty when nothing has
// been fetched for the city or the cache has not been loaded yet.
func (c *Client) Entry(cityID int64) CityWeatherEntry {
	if c.state == nil {
		return CityWeatherEntry{CityID: cityID}
	}
	return c.state.Entry(cityID)
}

// LastCallTime returns the persisted last call time, or the zero time when
// the cache has not been loaded yet.
func (c *Client) LastCallTime() time.Time {
	if c.state == nil {
		return time.Time{}
	}
	return c.state.LastCallTime
}

func (c *Client) load(ctx context.Context) (CacheState, error) {
	if c.state != nil {
		return *c.state, nil
	}

	state, err := c.store.Load(ctx)
	if err != nil {
		return CacheState{}, fmt.Errorf("load weather cache: %w", err)
	}
	if state.Entries == nil {
		state.Entries = make(map[int64]CityWeatherEntry)
	}

	log.Printf("DEBUG: loaded weather cache; %s", state)
	c.state = &state
	return state, nil
}
