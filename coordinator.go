package readcache

import (
	"context"
	"sync"
)

// EventType identifies a domain change relevant to cached read models.
type EventType string

const (
	EventItemEdited       EventType = "item_edited"
	EventChildCreated     EventType = "child_created"
	EventReactionChanged  EventType = "reaction_changed"
	EventViewCounted      EventType = "view_counted"
	EventContainerChanged EventType = "container_changed"
)

// Event is the minimal payload write paths hand to the Coordinator.
// The coordinator does not care how the event was produced (direct call,
// queue, message bus).
type Event struct {
	Type       EventType
	ResourceID string
	// ContainerID names the list scope affected by the change (the item's
	// category/thread). Empty when the event has no container.
	ContainerID string
}

// Reaction describes which invalidations an event type triggers.
type Reaction struct {
	Item      bool // drop the item detail entry (ResourceID)
	ListScope bool // drop every list page under ContainerID
	Aggregate bool // drop the aggregate entry (ResourceID)
}

// Policy maps event types to invalidation breadth. Events absent from the
// policy are ignored.
//
// The default table deliberately under-invalidates low-value consistency
// and goes broad only for structural changes:
//
//	item_edited       -> item + list scope (content shows in list previews)
//	child_created     -> item + list scope (membership/order changed)
//	reaction_changed  -> item only (lists show no reaction detail; dropping
//	                     them would cut hit rate for nothing)
//	view_counted      -> nothing (counters are eventually consistent)
//	container_changed -> aggregate only
//
// Widening reaction_changed to ListScope trades hit rate for freshness;
// deployments weigh that differently, which is why this is a value and not
// hardcoded behavior.
type Policy map[EventType]Reaction

func DefaultPolicy() Policy {
	return Policy{
		EventItemEdited:       {Item: true, ListScope: true},
		EventChildCreated:     {Item: true, ListScope: true},
		EventReactionChanged:  {Item: true},
		EventViewCounted:      {},
		EventContainerChanged: {Aggregate: true},
	}
}

// Invalidator is the facade subset the coordinator drives.
// Any Cache[V] satisfies it.
type Invalidator interface {
	InvalidateItem(ctx context.Context, id string)
	InvalidateListScope(ctx context.Context, scope string) int
	InvalidateAggregate(ctx context.Context, id string)
}

// CoordinatorOptions tune the event-to-invalidation mapping.
// Only Target is required.
type CoordinatorOptions struct {
	Target Invalidator
	Policy Policy // nil => DefaultPolicy()
	Logger Logger // nil => NopLogger
	Hooks  Hooks  // nil => NopHooks

	// Dispatch queue. Events are dropped (with a hook) when it is full so
	// write paths never block on cache bookkeeping.
	QueueSize int // 0 => 256
	Workers   int // queue drainers; 0 => 1
}

// Coordinator translates domain change events into facade invalidation
// calls. Each event is processed independently and idempotently: replaying
// an event only repeats deletes of already-absent keys.
type Coordinator struct {
	target Invalidator
	policy Policy
	log    Logger
	hooks  Hooks

	q    chan Event
	wg   sync.WaitGroup
	once sync.Once
}

func NewCoordinator(opts CoordinatorOptions) (*Coordinator, error) {
	if opts.Target == nil {
		return nil, errConfig("coordinator target")
	}

	co := &Coordinator{
		target: opts.Target,
		policy: opts.Policy,
		log:    coalesce[Logger](opts.Logger, NopLogger{}),
		hooks:  coalesce[Hooks](opts.Hooks, NopHooks{}),
	}
	if co.policy == nil {
		co.policy = DefaultPolicy()
	}

	qlen := opts.QueueSize
	if qlen <= 0 {
		qlen = 256
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	co.q = make(chan Event, qlen)
	co.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer co.wg.Done()
			for ev := range co.q {
				co.Apply(context.Background(), ev)
			}
		}()
	}
	return co, nil
}

// Apply processes one event synchronously against the policy.
func (co *Coordinator) Apply(ctx context.Context, ev Event) {
	r, ok := co.policy[ev.Type]
	if !ok {
		co.log.Debug("readcache.event_ignored", Fields{"event": ev.Type})
		return
	}

	if r.Item && ev.ResourceID != "" {
		co.target.InvalidateItem(ctx, ev.ResourceID)
	}
	if r.ListScope {
		if ev.ContainerID == "" {
			// nothing to scope on; the targeted invalidation above stands
			co.log.Debug("readcache.event_scope_skipped", Fields{"event": ev.Type, "resource": ev.ResourceID})
		} else {
			n := co.target.InvalidateListScope(ctx, ev.ContainerID)
			co.log.Debug("readcache.event_scope", Fields{"event": ev.Type, "scope": ev.ContainerID, "count": n})
		}
	}
	if r.Aggregate && ev.ResourceID != "" {
		co.target.InvalidateAggregate(ctx, ev.ResourceID)
	}
}

// Dispatch enqueues an event without blocking the write path. Returns false
// when the queue is full and the event was dropped; the entries it would
// have removed then age out via TTL.
func (co *Coordinator) Dispatch(ev Event) bool {
	select {
	case co.q <- ev:
		return true
	default:
		co.hooks.QueueDropped(string(ev.Type))
		co.log.Warn("readcache.event_dropped", Fields{"event": ev.Type})
		return false
	}
}

// Close drains the queue and stops the workers. Safe to call twice.
func (co *Coordinator) Close() {
	co.once.Do(func() {
		close(co.q)
		co.wg.Wait()
	})
}
