package readcache

import (
	"context"
	"time"

	c "github.com/unkn0wn-root/readcache/codec"
	gen "github.com/unkn0wn-root/readcache/genstore"
	"github.com/unkn0wn-root/readcache/keytrack"
	pr "github.com/unkn0wn-root/readcache/provider"
)

// Kind tags the resource families the facade caches. Each kind carries its
// own default TTL and its own key namespace segment.
type Kind string

const (
	KindItem      Kind = "item"
	KindList      Kind = "list"
	KindAggregate Kind = "aggregate"
)

// SetCostFunc lets cost-aware providers (Ristretto) weigh entries.
type SetCostFunc func(key string, raw []byte, kind Kind) int64

// TTLConfig is the per-kind default TTL table. Items with frequent child
// mutations (replies, reactions) need short freshness windows; list pages
// tolerate more; aggregates change rarely and cache longest.
//
// Every field must be positive: a missing entry is a programming error
// surfaced by New, never defaulted around at runtime.
type TTLConfig struct {
	Item      time.Duration
	List      time.Duration
	Aggregate time.Duration
}

func (t TTLConfig) validate() error {
	if t.Item <= 0 {
		return errConfig("TTL.Item")
	}
	if t.List <= 0 {
		return errConfig("TTL.List")
	}
	if t.Aggregate <= 0 {
		return errConfig("TTL.Aggregate")
	}
	return nil
}

func (t TTLConfig) forKind(kind Kind) time.Duration {
	switch kind {
	case KindItem:
		return t.Item
	case KindList:
		return t.List
	default:
		return t.Aggregate
	}
}

// Cache is the high-level, provider-agnostic response cache API.
// V is the caller's payload type. Serialization is handled by a pluggable Codec[V].
//
// After a successful New, operations never fail: backend errors degrade to
// misses and no-ops (fail-open). On a miss the caller computes the value
// and Sets it; the cache never invokes producers itself.
type Cache[V any] interface {
	Enabled() bool
	Close(context.Context) error

	// Item detail entries, keyed by stable identifier.
	GetItem(ctx context.Context, id string) (v V, ok bool)
	SetItem(ctx context.Context, id string, value V, ttl time.Duration)
	InvalidateItem(ctx context.Context, id string)

	// Paginated list entries, keyed by scope, page window and filter shape.
	// Filter maps that are equal as key/value sets address the same entry
	// regardless of insertion order.
	GetList(ctx context.Context, scope string, page, pageSize int, filters map[string]any) (v V, ok bool)
	SetList(ctx context.Context, scope string, page, pageSize int, filters map[string]any, value V, ttl time.Duration)
	InvalidateList(ctx context.Context, scope string, page, pageSize int, filters map[string]any)

	// InvalidateListScope removes every cached list page under scope and
	// returns how many entries were deleted (0 when nothing matched).
	InvalidateListScope(ctx context.Context, scope string) int

	// Aggregate entries (categories, sidebars, counts), keyed by identifier.
	GetAggregate(ctx context.Context, id string) (v V, ok bool)
	SetAggregate(ctx context.Context, id string, value V, ttl time.Duration)
	InvalidateAggregate(ctx context.Context, id string)

	// InvalidateScope bulk-deletes one kind's keys under scope. An empty
	// scope sweeps the whole kind ("all lists, any category").
	InvalidateScope(ctx context.Context, kind Kind, scope string) int
}

// Options tune the behavior of the response cache.
// Namespace, Provider, Codec and TTL are required; others have defaults.
type Options[V any] struct {
	// Required
	Namespace string // logical namespace to avoid collisions. e.g. "blog", "forum"
	Provider  pr.Provider
	Codec     c.Codec[V]
	TTL       TTLConfig // per-kind defaults; all three entries required

	Logger         Logger        // if nil, NopLogger is used
	Hooks          Hooks         // if nil, NopHooks is used
	OpTimeout      time.Duration // bound per backend call; 0 => 250ms
	Disabled       bool          // default false (enabled)
	ComputeSetCost SetCostFunc   // default 1

	// VersionGuard stamps entries with a per-key generation. Invalidate
	// bumps the generation, so a Set that raced an invalidation is rejected
	// on the next read instead of lingering until TTL.
	VersionGuard bool
	GenStore     gen.GenStore // nil => LocalGenStore (in-process); read only with VersionGuard

	// Registry overrides the key index used for scope invalidation on
	// providers without native prefix delete. nil => fresh per facade.
	// Injectable so tests can reset or observe it.
	Registry *keytrack.Registry
}

func New[V any](opts Options[V]) (Cache[V], error) {
	return newCache[V](opts)
}
