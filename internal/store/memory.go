package store

import (
	"context"
	"sync"

	"github.com/i474232898/whats-the-weather/internal/weather"
)

// MemoryStore is a concurrency-safe in-memory implementation of weather.Store.
// Nothing survives the process; it backs tests and ephemeral runs.
type MemoryStore struct {
	mu sync.RWMutex

	state  *weather.CacheState
	saves  int
	loaded int
}

// NewMemoryStore creates an empty MemoryStore. A nil seed behaves like a
// store that has never been written.
func NewMemoryStore(seed *weather.CacheState) *MemoryStore {
	s := &MemoryStore{}
	if seed != nil {
		cp := seed.Clone()
		s.state = &cp
	}
	return s
}

// Load returns a copy of the stored state, initialising it on first use.
func (s *MemoryStore) Load(ctx context.Context) (weather.CacheState, error) {
	if err := ctx.Err(); err != nil {
		return weather.CacheState{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.loaded++
	if s.state == nil {
		fresh := weather.NewCacheState()
		s.state = &fresh
		s.saves++
	}
	return s.state.Clone(), nil
}

// Save replaces the stored state.
func (s *MemoryStore) Save(ctx context.Context, state weather.CacheState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := state.Clone()
	s.state = &cp
	s.saves++
	return nil
}

// Saves returns how many writes the store has seen, including the one made
// when an empty store is first loaded.
func (s *MemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// Loads returns how many times Load was called.
func (s *MemoryStore) Loads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Snapshot returns a copy of the stored state and whether one exists.
func (s *MemoryStore) Snapshot() (weather.CacheState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return weather.CacheState{}, false
	}
	return s.state.Clone(), true
}

var _ weather.Store = (*MemoryStore)(nil)
