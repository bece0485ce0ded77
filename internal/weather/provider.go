package weather

import (
	"context"
	"encoding/json"
)

// Provider abstracts the remote weather API. Fetch returns the raw JSON
// document of the endpoint selected by kind.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, kind Kind, cityID int64) (json.RawMessage, error)
}

// Store is the contract of the persistent cache. Load on an empty store must
// initialise and persist a fresh CacheState. Save replaces everything in one
// durable write.
type Store interface {
	Load(ctx context.Context) (CacheState, error)
	Save(ctx context.Context, state CacheState) error
}
