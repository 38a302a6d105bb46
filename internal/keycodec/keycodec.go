// Package keycodec derives deterministic, collision-resistant cache keys
// from a namespace, a resource kind and either a stable identifier or a
// (scope, page window, filter set) query shape.
//
// Keys are plain printable strings so any byte store can hold them:
//
//	<ns>:<kind>:<id>
//	<ns>:list:<scope>:<page>:<pageSize>:<digest>
//
// The digest is the first 32 hex characters (128 bits) of a SHA-256 over the
// canonicalized filter set. Truncation happens on the hex text, never on raw
// bytes, so the character set stays storage-safe.
package keycodec

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// SentinelDigest replaces the filter digest when the filter set cannot be
// canonicalized. All pathological filter sets share this one slot; that
// trades rare collisions between inputs that should never occur for a key
// that stays deterministic across get/set/invalidate.
const SentinelDigest = "default"

// digestHexLen keeps 128 bits of the SHA-256 output.
const digestHexLen = 32

// KeyEncodingError reports a filter value that has no stable serialization.
type KeyEncodingError struct {
	Field string
	Err   error
}

func (e *KeyEncodingError) Error() string {
	return fmt.Sprintf("keycodec: filter %q is not serializable: %v", e.Field, e.Err)
}

func (e *KeyEncodingError) Unwrap() error { return e.Err }

// ItemKey composes a key for identifier-addressed entries (items,
// aggregates). The identifier is caller-controlled and low-cardinality, so
// no hashing is needed.
func ItemKey(ns, kind, id string) string {
	return ns + ":" + kind + ":" + id
}

// ListKey composes a key for one page of a filtered list. Filter sets that
// are equal as key/value pairs produce identical keys regardless of map
// iteration order. On a canonicalization failure the returned key uses
// SentinelDigest and the error describes the offending filter; the key is
// still valid and deterministic.
func ListKey(ns, scope string, page, pageSize int, filters map[string]any) (string, error) {
	digest, err := FilterDigest(filters)
	if err != nil {
		digest = SentinelDigest
	}
	key := ns + ":list:" + scope + ":" + strconv.Itoa(page) + ":" + strconv.Itoa(pageSize) + ":" + digest
	return key, err
}

// FilterDigest hashes a canonicalized filter set. An empty or nil map
// digests the literal "{}", so "no filters" is itself a stable shape.
func FilterDigest(filters map[string]any) (string, error) {
	canon, err := canonicalize(filters)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(canon))
	return hex.EncodeToString(sum[:])[:digestHexLen], nil
}

// canonicalize renders filters as a JSON-shaped object with keys in sorted
// order. json.Marshal on each value gives one stable text per value; the
// sort removes insertion-order sensitivity.
func canonicalize(filters map[string]any) (string, error) {
	if len(filters) == 0 {
		return "{}", nil
	}

	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		vb, err := json.Marshal(filters[k])
		if err != nil {
			return "", &KeyEncodingError{Field: k, Err: err}
		}
		if i > 0 {
			b.WriteByte(',')
		}
		kb, _ := json.Marshal(k) // string keys cannot fail
		b.Write(kb)
		b.WriteByte(':')
		b.Write(vb)
	}
	b.WriteByte('}')
	return b.String(), nil
}

// KindPrefix covers every key of one kind in a namespace.
func KindPrefix(ns, kind string) string {
	return ns + ":" + kind + ":"
}

// ScopePrefix covers every key of one kind under a scope. An empty scope
// widens to the whole kind.
func ScopePrefix(ns, kind, scope string) string {
	if scope == "" {
		return KindPrefix(ns, kind)
	}
	return ns + ":" + kind + ":" + scope + ":"
}
