// Package common holds the small value types shared across the sync
// core, mirroring the role go-ethereum's own common package plays for
// the rest of that codebase.
package common

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// HashLength is the expected length of a block hash.
const HashLength = 32

// Hash is a 32-byte block or header digest.
type Hash [HashLength]byte

// BytesToHash right-aligns b into a Hash, truncating from the left if
// b is longer than HashLength.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

// Bytes returns the hash as a byte slice.
func (h Hash) Bytes() []byte { return h[:] }

// Hex returns the "0x"-prefixed hex encoding of the hash.
func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

// String implements fmt.Stringer.
func (h Hash) String() string { return h.Hex() }

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool { return h == Hash{} }

// Less reports whether h sorts before other lexicographically, used
// as the final fork-choice tie-break.
func (h Hash) Less(other Hash) bool {
	return bytes.Compare(h[:], other[:]) < 0
}

// Format implements fmt.Formatter so %v/%x on a Hash behave sensibly
// in log lines without callers having to remember to call Hex().
func (h Hash) Format(s fmt.State, c rune) {
	switch c {
	case 'x', 'X', 'v', 's':
		fmt.Fprint(s, h.Hex())
	default:
		fmt.Fprintf(s, "%%!%c(Hash=%s)", c, h.Hex())
	}
}
