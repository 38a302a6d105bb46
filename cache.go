package readcache

import (
	"context"
	"fmt"
	"time"

	cod "github.com/unkn0wn-root/readcache/codec"
	"github.com/unkn0wn-root/readcache/genstore"
	"github.com/unkn0wn-root/readcache/internal/keycodec"
	"github.com/unkn0wn-root/readcache/internal/wire"
	"github.com/unkn0wn-root/readcache/keytrack"
	pr "github.com/unkn0wn-root/readcache/provider"
)

const (
	defaultOpTimeout    = 250 * time.Millisecond
	defaultGenRetention = 30 * 24 * time.Hour
	defaultGenSweep     = time.Hour
)

func errConfig(field string) error {
	return fmt.Errorf("readcache: %s is required", field)
}

type cache[V any] struct {
	ns             string
	provider       pr.Provider
	codec          cod.Codec[V]
	log            Logger
	hooks          Hooks
	enabled        bool
	ttl            TTLConfig
	opTimeout      time.Duration
	computeSetCost SetCostFunc

	guard bool
	gen   genstore.GenStore

	// resolved once from the provider capability flag; never probed per call
	nativePrefix bool
	registry     *keytrack.Registry
}

func newCache[V any](opts Options[V]) (*cache[V], error) {
	if opts.Provider == nil {
		return nil, errConfig("provider")
	}
	if opts.Codec == nil {
		return nil, errConfig("codec")
	}
	if opts.Namespace == "" {
		return nil, errConfig("namespace")
	}
	if err := opts.TTL.validate(); err != nil {
		return nil, err
	}

	c := &cache[V]{
		ns:           opts.Namespace,
		provider:     opts.Provider,
		codec:        opts.Codec,
		ttl:          opts.TTL,
		enabled:      !opts.Disabled,
		guard:        opts.VersionGuard,
		nativePrefix: opts.Provider.SupportsDelPrefix(),
	}

	// defaults
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	c.opTimeout = coalesce[time.Duration](opts.OpTimeout, defaultOpTimeout)

	if opts.ComputeSetCost != nil {
		c.computeSetCost = opts.ComputeSetCost
	} else {
		c.computeSetCost = func(_ string, _ []byte, _ Kind) int64 { return 1 }
	}

	if opts.Registry != nil {
		c.registry = opts.Registry
	} else {
		c.registry = keytrack.New()
	}

	if c.guard {
		if opts.GenStore != nil {
			c.gen = opts.GenStore
		} else {
			// default to in-process generations with periodic cleanup
			c.gen = genstore.NewLocalGenStore(defaultGenSweep, defaultGenRetention)
		}
	}

	return c, nil
}

func (c *cache[V]) Enabled() bool { return c.enabled }

func (c *cache[V]) Close(ctx context.Context) error {
	// Close gen store first (best effort)
	if c.gen != nil {
		_ = c.gen.Close(ctx)
	}
	if c.provider != nil {
		return c.provider.Close(ctx)
	}
	return nil
}

// ---- item ----

func (c *cache[V]) GetItem(ctx context.Context, id string) (V, bool) {
	return c.get(ctx, KindItem, keycodec.ItemKey(c.ns, string(KindItem), id))
}

func (c *cache[V]) SetItem(ctx context.Context, id string, value V, ttl time.Duration) {
	c.set(ctx, KindItem, keycodec.ItemKey(c.ns, string(KindItem), id), value, ttl)
}

func (c *cache[V]) InvalidateItem(ctx context.Context, id string) {
	c.invalidate(ctx, KindItem, keycodec.ItemKey(c.ns, string(KindItem), id))
}

// ---- list ----

func (c *cache[V]) GetList(ctx context.Context, scope string, page, pageSize int, filters map[string]any) (V, bool) {
	return c.get(ctx, KindList, c.listKey(scope, page, pageSize, filters))
}

func (c *cache[V]) SetList(ctx context.Context, scope string, page, pageSize int, filters map[string]any, value V, ttl time.Duration) {
	c.set(ctx, KindList, c.listKey(scope, page, pageSize, filters), value, ttl)
}

func (c *cache[V]) InvalidateList(ctx context.Context, scope string, page, pageSize int, filters map[string]any) {
	c.invalidate(ctx, KindList, c.listKey(scope, page, pageSize, filters))
}

func (c *cache[V]) InvalidateListScope(ctx context.Context, scope string) int {
	return c.InvalidateScope(ctx, KindList, scope)
}

// ---- aggregate ----

func (c *cache[V]) GetAggregate(ctx context.Context, id string) (V, bool) {
	return c.get(ctx, KindAggregate, keycodec.ItemKey(c.ns, string(KindAggregate), id))
}

func (c *cache[V]) SetAggregate(ctx context.Context, id string, value V, ttl time.Duration) {
	c.set(ctx, KindAggregate, keycodec.ItemKey(c.ns, string(KindAggregate), id), value, ttl)
}

func (c *cache[V]) InvalidateAggregate(ctx context.Context, id string) {
	c.invalidate(ctx, KindAggregate, keycodec.ItemKey(c.ns, string(KindAggregate), id))
}

// ---- scope ----

func (c *cache[V]) InvalidateScope(ctx context.Context, kind Kind, scope string) int {
	if !c.enabled {
		return 0
	}
	prefix := keycodec.ScopePrefix(c.ns, string(kind), scope)

	var deleted int
	if c.nativePrefix {
		cctx, cancel := c.opCtx(ctx)
		n, err := c.provider.DelPrefix(cctx, prefix)
		cancel()
		deleted = n
		if err != nil {
			c.hooks.BackendError("delete_scope", prefix, err)
			c.log.Warn("readcache.backend_error", Fields{"op": "delete_scope", "kind": kind, "key": prefix, "err": err})
		}
		// entries are gone server-side; drop the index entries too
		c.registry.UntrackPrefix(prefix)
	} else {
		var errs []error
		deleted, errs = c.registry.SweepPrefix(prefix, func(k string) error {
			cctx, cancel := c.opCtx(ctx)
			defer cancel()
			return c.provider.Del(cctx, k)
		})
		if len(errs) > 0 {
			swErr := &SweepError{Prefix: prefix, Deleted: deleted, Errs: errs}
			c.hooks.SweepPartial(prefix, deleted, len(errs))
			c.log.Error("readcache.sweep_partial", Fields{
				"op": "delete_scope", "kind": kind, "key": prefix,
				"count": deleted, "failed": len(errs), "err": swErr,
			})
		}
	}

	c.log.Debug("readcache.delete_scope", Fields{"op": "delete_scope", "kind": kind, "key": prefix, "count": deleted})
	return deleted
}

// ---- shared paths ----

func (c *cache[V]) get(ctx context.Context, kind Kind, key string) (V, bool) {
	var zero V
	if !c.enabled {
		return zero, false
	}

	cctx, cancel := c.opCtx(ctx)
	raw, ok, err := c.provider.Get(cctx, key)
	cancel()
	if err != nil {
		// fail toward miss, never toward stale data
		c.hooks.BackendError("get", key, err)
		c.log.Warn("readcache.backend_error", Fields{"op": "get", "kind": kind, "key": key, "err": err})
		return zero, false
	}
	if !ok {
		c.log.Debug("readcache.miss", Fields{"op": "miss", "kind": kind, "key": key})
		return zero, false
	}

	gen, payload, err := wire.Decode(raw)
	if err != nil {
		c.selfHeal(ctx, key, "corrupt")
		c.log.Debug("readcache.miss", Fields{"op": "miss", "kind": kind, "key": key})
		return zero, false
	}
	if c.guard && gen != c.snapshotGen(ctx, key) {
		// written before the latest invalidation for this key
		c.selfHeal(ctx, key, "stale_gen")
		c.log.Debug("readcache.miss", Fields{"op": "miss", "kind": kind, "key": key})
		return zero, false
	}

	v, err := c.codec.Decode(payload)
	if err != nil {
		c.selfHeal(ctx, key, "value_decode")
		c.log.Debug("readcache.miss", Fields{"op": "miss", "kind": kind, "key": key})
		return zero, false
	}

	c.log.Debug("readcache.hit", Fields{"op": "hit", "kind": kind, "key": key})
	return v, true
}

func (c *cache[V]) set(ctx context.Context, kind Kind, key string, value V, ttl time.Duration) {
	if !c.enabled {
		return
	}
	if ttl == 0 {
		ttl = c.ttl.forKind(kind)
	}

	payload, err := c.codec.Encode(value)
	if err != nil {
		c.log.Error("readcache.encode_error", Fields{"op": "set", "kind": kind, "key": key, "err": err})
		return
	}

	var gen uint64
	if c.guard {
		// stamp with the generation observed now; an invalidation landing
		// after this snapshot makes the entry unreadable (stale_gen)
		gen = c.snapshotGen(ctx, key)
	}
	framed := wire.Encode(gen, payload)

	cctx, cancel := c.opCtx(ctx)
	ok, err := c.provider.Set(cctx, key, framed, c.computeSetCost(key, framed, kind), ttl)
	cancel()
	if err != nil {
		c.hooks.BackendError("set", key, err)
		c.log.Warn("readcache.backend_error", Fields{"op": "set", "kind": kind, "key": key, "err": err})
		return
	}
	if !ok {
		c.hooks.SetRejected(key)
		c.log.Debug("readcache.set_rejected", Fields{"op": "set", "kind": kind, "key": key})
		return
	}

	c.registry.Track(key)
	c.log.Debug("readcache.set", Fields{"op": "set", "kind": kind, "key": key})
}

func (c *cache[V]) invalidate(ctx context.Context, kind Kind, key string) {
	if !c.enabled {
		return
	}
	if c.guard {
		c.bumpGen(ctx, key)
	}

	cctx, cancel := c.opCtx(ctx)
	err := c.provider.Del(cctx, key)
	cancel()
	if err != nil {
		// keep the key tracked so a later sweep retries the delete
		c.hooks.BackendError("delete", key, err)
		c.log.Warn("readcache.backend_error", Fields{"op": "delete", "kind": kind, "key": key, "err": err})
	} else {
		c.registry.Untrack(key)
	}

	c.log.Debug("readcache.delete", Fields{"op": "delete", "kind": kind, "key": key})
}

func (c *cache[V]) listKey(scope string, page, pageSize int, filters map[string]any) string {
	key, err := keycodec.ListKey(c.ns, scope, page, pageSize, filters)
	if err != nil {
		// key already carries the sentinel digest; stays deterministic
		c.hooks.EncodeFallback(KindList, scope, err)
		c.log.Warn("readcache.key_fallback", Fields{"kind": KindList, "scope": scope, "err": err})
	}
	return key
}

func (c *cache[V]) selfHeal(ctx context.Context, key, reason string) {
	c.hooks.SelfHeal(key, reason)
	cctx, cancel := c.opCtx(ctx)
	defer cancel()
	_ = c.provider.Del(cctx, key)
}

func (c *cache[V]) snapshotGen(ctx context.Context, storageKey string) uint64 {
	g, err := c.gen.Snapshot(ctx, storageKey)
	if err != nil {
		// conservative: treat as 0; stale entries self-heal on read
		c.hooks.BackendError("gen_snapshot", storageKey, err)
		c.log.Warn("readcache.gen_snapshot_error", Fields{"key": storageKey, "err": err})
		return 0
	}
	return g
}

func (c *cache[V]) bumpGen(ctx context.Context, storageKey string) uint64 {
	g, err := c.gen.Bump(ctx, storageKey)
	if err != nil {
		c.hooks.BackendError("gen_bump", storageKey, err)
		c.log.Error("readcache.gen_bump_error", Fields{"key": storageKey, "err": err})
		return 0
	}
	return g
}

func (c *cache[V]) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.opTimeout)
}
