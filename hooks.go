package readcache

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The cache calls them on hot paths.
type Hooks interface {
	// A list key could not be canonicalized; the sentinel digest segment
	// was used instead.
	EncodeFallback(kind Kind, scope string, err error)

	// The provider returned an error; the operation degraded to a miss or
	// no-op. op ∈ {"get", "set", "delete", "delete_scope", "gen_snapshot", "gen_bump"}
	BackendError(op, storageKey string, err error)

	// Provider returned ok=false on Set (backpressure/eviction).
	SetRejected(storageKey string)

	// An entry was deleted by the cache on read.
	// reason ∈ {"corrupt", "stale_gen", "value_decode"}
	SelfHeal(storageKey, reason string)

	// A registry sweep finished with failed deletions still pending retry.
	SweepPartial(prefix string, deleted, failed int)

	// A dispatched event was dropped because the coordinator queue was full.
	QueueDropped(eventType string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) EncodeFallback(Kind, string, error)  {}
func (NopHooks) BackendError(string, string, error)  {}
func (NopHooks) SetRejected(string)                  {}
func (NopHooks) SelfHeal(string, string)             {}
func (NopHooks) SweepPartial(string, int, int)       {}
func (NopHooks) QueueDropped(string)                 {}
