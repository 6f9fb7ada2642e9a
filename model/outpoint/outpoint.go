// Package outpoint identifies a single previous transaction output.
package outpoint

import "github.com/copernet/blockassembler/util/hash"

// OutPoint references output Index of transaction Hash.
type OutPoint struct {
	Hash  hash.Hash
	Index uint32
}

// NullIndex marks a coinbase input's outpoint index.
const NullIndex = 0xffffffff

func Null() OutPoint {
	return OutPoint{Hash: hash.Zero, Index: NullIndex}
}

func (o OutPoint) IsNull() bool {
	return o.Hash.IsZero() && o.Index == NullIndex
}
