package schedule

import "time"

// SnapshotCache provides an abstraction for caching the built snapshot.
// This allows swapping between in-memory, Redis, or other caching implementations.
type SnapshotCache interface {
	// Get retrieves the cached snapshot, returns nil if cache miss or expired
	Get() *Snapshot

	// Set stores a snapshot in cache
	Set(snap *Snapshot)

	// Invalidate clears the cache, forcing a rebuild on next Get
	Invalidate()

	// IsValid returns true if cache has valid data
	IsValid() bool
}

// CacheConfig holds configuration for cache behavior.
type CacheConfig struct {
	// TTL is the time-to-live for the cached snapshot.
	// Set to 0 for no expiration (manual invalidation only).
	TTL time.Duration
}

// DefaultCacheConfig returns sensible defaults for snapshot caching.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL: 0, // No TTL - only invalidate on mutations
	}
}
