package cache

import (
	"context"
	"time"
)

// NullCache disables artifact caching: every export re-renders. It is
// selected by backend = "none" and by --no-cache.
type NullCache struct{}

// NewNullCache creates a cache that never hits.
func NewNullCache() Cache {
	return NullCache{}
}

// Get reports a miss for every key.
func (NullCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set discards the artifact.
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Delete is a no-op.
func (NullCache) Delete(context.Context, string) error { return nil }

// Close is a no-op.
func (NullCache) Close() error { return nil }

var _ Cache = NullCache{}
