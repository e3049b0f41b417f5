// Package cache stores computed layouts so that reloading an unchanged
// topology does not run the layout engine again.
//
// # Backends
//
//   - [NullCache]: never stores anything (caching disabled)
//   - [FileCache]: JSON files under ~/.cache/haview/, for the CLI
//   - [MemoryCache]: bounded in-process LRU, for the terminal viewer
//   - [RedisCache]: shared cache for several viewers on different machines
//
// # Keys
//
// Keys are produced by a [Keyer] so that every backend uses the same
// namespace layout:
//
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.LayoutKey(cache.Hash(modelJSON), cache.LayoutKeyOpts{Engine: "dot"})
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the stored value and true, or nil and false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by backends that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) error
}
