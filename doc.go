// Package readcache implements a provider-agnostic response cache for
// serialized read models (item details, paginated lists, aggregates) keyed
// by content identity and query shape.
//
// Components:
//   - Provider: byte store with TTL (e.g. Redis, Ristretto, BigCache).
//     Stores that can enumerate keys expose native prefix deletion; the
//     facade falls back to an in-process key registry otherwise.
//   - Codec[V]: (de)serializes V <-> []byte.
//   - keytrack.Registry: keys-ever-written index used for prefix invalidation
//     on stores without native pattern deletion.
//   - GenStore: optional per-key generation counters. With VersionGuard on,
//     a write that raced an invalidation is rejected on the next read.
//   - Coordinator: maps domain change events to targeted or scope-wide
//     invalidation per a configurable policy.
//
// Keys:
//
//	<ns>:item:<id>
//	<ns>:list:<scope>:<page>:<pageSize>:<filterDigest>
//	<ns>:aggregate:<id>
//
// Caching here is an optimization, never a correctness dependency: after a
// successful New, no operation returns an error. Backend failures degrade to
// misses and no-ops, so a dead backend behaves exactly like a disabled cache.
// The miss path belongs to the caller: compute the value, then Set it.
package readcache
