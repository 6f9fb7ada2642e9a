// Package hash implements the 32-byte double-SHA256 transaction/block
// identifier used throughout the assembler, along with a lexicographic
// comparison over internal byte order used for deterministic tie-breaks.
package hash

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
)

const Size = 32

// Hash is a double-SHA256 digest, stored internally in the same
// byte order it is computed in (internal order), and displayed
// reversed (display order), matching Bitcoin-family conventions.
type Hash [Size]byte

var Zero = Hash{}

// DoubleSHA256 computes sha256(sha256(b)).
func DoubleSHA256(b []byte) Hash {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return Hash(second)
}

// Cmp orders hashes lexicographically over their internal byte order.
// It exists purely as a deterministic, total tie-break for entries
// that otherwise compare equal (see model/mempool's EntryFeeSort).
func (h *Hash) Cmp(other *Hash) int {
	return bytes.Compare(h[:], other[:])
}

func (h Hash) IsZero() bool {
	return h == Zero
}

// String renders the hash in display (byte-reversed) order.
func (h Hash) String() string {
	reversed := make([]byte, Size)
	for i := 0; i < Size; i++ {
		reversed[i] = h[Size-1-i]
	}
	return hex.EncodeToString(reversed)
}
