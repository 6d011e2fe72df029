// Package cache provides byte caches for rendered artifacts.
//
// Rendering a letter is the expensive step of every export, and the same
// approved document is typically exported many times. Artifacts are cached
// under a key derived from the document's content hash and every option that
// changes the output (see [Keyer]), so a content edit never serves a stale file.
//
// Three implementations exist:
//
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [RedisCache]: shared cache for the store API server
//   - [NullCache]: caching disabled
//
// Cache failures are never fatal to an export; callers log and continue.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque bytes with an optional time-to-live.
type Cache interface {
	// Get returns the cached value and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// TTLArtifact is the default lifetime of a cached rendered artifact.
const TTLArtifact = 24 * time.Hour
