// Package cache stores the results of expensive external commands, such as
// `cargo metadata`, between runs.
//
// Two implementations are provided: [FileCache] keeps entries as files under
// a directory and [NullCache] never stores anything. Keys are built with
// [Key] from the inputs that determine the result, so a changed manifest or
// lock file naturally misses.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the value for key and whether it was found and fresh.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}
