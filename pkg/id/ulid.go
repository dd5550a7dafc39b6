// Package id generates record identifiers.
package id

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// Crockford's Base32 alphabet (excludes I, L, O, U).
const crockfordBase32 = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// ULIDLength is the length of a ULID string.
const ULIDLength = 26

// Generator returns a new unique identifier on each call.
type Generator func() string

// NewULID generates a ULID (Universally Unique Lexicographically Sortable Identifier).
// Returns a 26-character string: 10 chars timestamp (48-bit ms) + 16 chars random (80-bit).
func NewULID() string {
	return newULIDAt(time.Now())
}

func newULIDAt(t time.Time) string {
	ms := uint64(t.UnixMilli())

	var entropy [10]byte
	if _, err := rand.Read(entropy[:]); err != nil {
		// degraded but still unique per nanosecond
		binary.BigEndian.PutUint64(entropy[:8], uint64(time.Now().UnixNano()))
	}

	var out [ULIDLength]byte
	for i := 9; i >= 0; i-- {
		out[i] = crockfordBase32[ms&0x1F]
		ms >>= 5
	}

	// 80 random bits as 16 groups of 5 bits, most significant first.
	hi := uint64(binary.BigEndian.Uint16(entropy[:2]))
	lo := binary.BigEndian.Uint64(entropy[2:])
	for i := ULIDLength - 1; i >= 10; i-- {
		out[i] = crockfordBase32[lo&0x1F]
		lo = lo>>5 | (hi&0x1F)<<59
		hi >>= 5
	}

	return string(out[:])
}
