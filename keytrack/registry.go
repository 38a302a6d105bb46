// Package keytrack indexes cache keys written through the facade so that
// prefix invalidation works on stores that cannot enumerate their own keys.
//
// The registry is an optimization index, not a source of truth: it is safe
// to lose on restart (orphaned entries simply age out via TTL), and a key
// missing from the registry only means its entry lingers until expiry.
package keytrack

import (
	"strings"
	"sync"
)

// Registry is a concurrency-safe set of live cache keys. One instance
// belongs to one facade; only the facade mutates it.
type Registry struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func New() *Registry {
	return &Registry{keys: make(map[string]struct{})}
}

// Track records a key. Idempotent.
func (r *Registry) Track(key string) {
	r.mu.Lock()
	r.keys[key] = struct{}{}
	r.mu.Unlock()
}

// Untrack forgets a key after a single-key invalidation.
func (r *Registry) Untrack(key string) {
	r.mu.Lock()
	delete(r.keys, key)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	n := len(r.keys)
	r.mu.Unlock()
	return n
}

// UntrackPrefix drops every tracked key under prefix without touching the
// store. Used after a native prefix delete already removed the entries.
func (r *Registry) UntrackPrefix(prefix string) int {
	r.mu.Lock()
	removed := 0
	for k := range r.keys {
		if strings.HasPrefix(k, prefix) {
			delete(r.keys, k)
			removed++
		}
	}
	r.mu.Unlock()
	return removed
}

// SweepPrefix deletes every tracked key under prefix through del and
// untracks the ones that succeeded. Keys whose delete failed stay tracked
// so a later sweep retries them; their errors come back alongside the
// count of successful deletions.
//
// The lock is held for the whole sweep. Registries stay small (bounded by
// distinct filter combinations x pages) and sweeps only run on invalidation
// events, so a short full-sweep hold beats snapshot bookkeeping. Very large
// key spaces would want snapshot-then-release instead.
func (r *Registry) SweepPrefix(prefix string, del func(key string) error) (deleted int, errs []error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k := range r.keys {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if err := del(k); err != nil {
			errs = append(errs, err)
			continue
		}
		delete(r.keys, k)
		deleted++
	}
	return deleted, errs
}
