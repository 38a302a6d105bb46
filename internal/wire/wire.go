// Package wire frames cached payloads with a versioned header and an
// optional per-key generation stamp. Framing is strict: anything that does
// not parse exactly is ErrCorrupt and gets self-healed (deleted) by the
// facade on read.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const version byte = 1

var (
	ErrCorrupt = errors.New("readcache: corrupt entry")
	magic4     = [...]byte{'R', 'D', 'C', 'E'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Encode frames a payload: magic(4) | ver(1) | gen(u64 be) | vlen(u32 be) | payload(vlen).
// gen is 0 when the version guard is off.
func Encode(gen uint64, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(4 + 1 + 8 + 4 + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], gen)
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

// Decode parses a frame. Trailing bytes are rejected: a frame either
// accounts for the whole entry or it is corrupt.
func Decode(b []byte) (gen uint64, payload []byte, err error) {
	const hdr = 4 + 1 + 8 + 4
	if len(b) < hdr || !hasMagic(b) || b[4] != version {
		return 0, nil, ErrCorrupt
	}

	off := 5

	gen = binary.BigEndian.Uint64(b[off : off+8])
	off += 8

	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || off+vlen != len(b) {
		return 0, nil, ErrCorrupt
	}

	return gen, b[off:], nil
}
