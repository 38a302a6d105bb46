// Package codec serializes cached values to the byte payloads the provider
// stores. The engine never interprets the payload; the producer that
// computed the value owns its shape.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
