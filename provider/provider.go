// Package provider defines the storage abstraction used by readcache.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly
// the same []byte that was previously passed to Set for a key (no
// prepended/appended metadata, no re-encoding, no mutation). If a store
// performs internal transforms (e.g., compression), they MUST be fully
// reversed so that the bytes returned by Get are identical to the bytes
// provided to Set.
//
// The facade treats the store as already concurrency-safe and makes every
// call under a bounded deadline; a timed-out call is handled like the
// corresponding failure (miss for Get, no-op for Set/Del).
package provider

import (
	"context"
	"errors"
	"time"
)

// ErrDelPrefixUnsupported is returned by DelPrefix on stores that cannot
// enumerate keys. Callers that checked SupportsDelPrefix never see it.
var ErrDelPrefixUnsupported = errors.New("provider: prefix delete not supported")

// Provider is a minimal byte store with TTLs.
// Must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL. May ignore cost if unsupported.
	// Returns ok=false when the store rejected the write under pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key (best-effort).
	Del(ctx context.Context, key string) error

	// DelPrefix removes every key beginning with prefix and reports how many
	// were deleted. Returns ErrDelPrefixUnsupported where the store cannot
	// enumerate keys; the facade then sweeps via its key registry instead.
	DelPrefix(ctx context.Context, prefix string) (int, error)

	// SupportsDelPrefix reports whether DelPrefix is native. The facade
	// resolves this once at construction, not per call.
	SupportsDelPrefix() bool

	// Close releases resources.
	Close(ctx context.Context) error
}
