// Package genstore tracks a monotonically increasing generation per storage
// key. The facade's version guard stamps cached entries with the generation
// observed at write time and rejects entries whose stamp predates the latest
// invalidation, which bounds the set-vs-invalidate race tighter than TTL.
package genstore

import (
	"context"
	"time"
)

// GenStore abstracts where generations live.
// Use LocalGenStore (default) for in-process gens, or RedisGenStore when
// invalidations must be visible across replicas.
type GenStore interface {
	// Snapshot returns the current generation; missing => 0.
	Snapshot(ctx context.Context, storageKey string) (uint64, error)
	// Bump atomically increments and returns the new generation.
	Bump(ctx context.Context, storageKey string) (uint64, error)
	// Cleanup prunes old metadata if applicable (no-op for Redis).
	Cleanup(retention time.Duration)
	// Close releases resources (no-op ok).
	Close(context.Context) error
}
