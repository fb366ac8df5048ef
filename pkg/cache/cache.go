// Package cache provides a persistent byte cache used to carry discovered
// version listings across ballast invocations.
//
// The in-memory version cache in pkg/source is authoritative within one
// process; this package is the optional layer underneath it, so a second
// invocation can skip repository listings that a recent run already paid
// for. Entries carry a TTL and expire silently.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys.
type Cache interface {
	// Get retrieves a value. The second result reports whether the key was
	// present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A non-positive ttl stores it without expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// VersionsKey builds the cache key for a project's discovered version list.
func VersionsKey(project string) string {
	return hashKey("versions", project)
}
