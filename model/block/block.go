// Package block models a candidate block and its header, as produced
// by the Template Finalizer (spec.md §4.7).
package block

import (
	"github.com/copernet/blockassembler/model/tx"
	"github.com/copernet/blockassembler/util/hash"
)

type Header struct {
	Version       int32
	HashPrevBlock hash.Hash
	HashMerkleRoot hash.Hash
	Time          uint32
	Bits          uint32
	Nonce         uint32
}

func (h *Header) SerializeSize() int { return 80 }

type Block struct {
	Header Header
	Txs    []*tx.Tx
}

func New(prevHash hash.Hash, bits uint32, ver int32) *Block {
	return &Block{Header: Header{Version: ver, HashPrevBlock: prevHash, Bits: bits}}
}

func (b *Block) AddTx(t *tx.Tx) { b.Txs = append(b.Txs, t) }

// MaxTransactionTime returns the largest Time field among the block's
// transactions, the `block.maxTxTime` the PoS timestamp rule floors
// nTime against so no included transaction's own time exceeds the
// header's (spec.md §4.8, §8 Invariant 5).
func (b *Block) MaxTransactionTime() int64 {
	var max int64
	for _, t := range b.Txs {
		if t.Time > max {
			max = t.Time
		}
	}
	return max
}

// SerializeSize sums the header and every transaction's total size.
func (b *Block) SerializeSize() int {
	n := b.Header.SerializeSize() + varIntSize(len(b.Txs))
	for _, t := range b.Txs {
		n += t.SerializeSize()
	}
	return n
}

// Weight implements block weight = 3*baseSize + totalSize, matching
// the per-transaction rule (spec.md §2, consensus.WitnessScaleFactor).
func (b *Block) Weight(witnessScaleFactor int) int {
	w := b.Header.SerializeSize() * witnessScaleFactor
	w += varIntSize(len(b.Txs)) * witnessScaleFactor
	for _, t := range b.Txs {
		w += t.GetWeight(witnessScaleFactor)
	}
	return w
}

// MerkleRoot computes the block's merkle root over Txs' hashes.
// A one-transaction block's root is that transaction's own hash; an
// empty block's root is the zero hash (never reached in practice
// since the coinbase, or an empty PoS placeholder coinbase, is always
// present by the time this is called).
func (b *Block) MerkleRoot() hash.Hash {
	leaves := make([]hash.Hash, len(b.Txs))
	for i, t := range b.Txs {
		leaves[i] = t.GetHash()
	}
	return MerkleRootOf(leaves)
}

// MerkleRootOf computes a binary double-SHA256 merkle root over an
// arbitrary leaf list — the same construction MerkleRoot uses over
// txids, reused by the witness-commitment computation over wtxids
// (spec.md §4.7 step 3, GLOSSARY "Witness commitment").
func MerkleRootOf(leaves []hash.Hash) hash.Hash {
	if len(leaves) == 0 {
		return hash.Zero
	}
	layer := append([]hash.Hash(nil), leaves...)
	for len(layer) > 1 {
		if len(layer)%2 == 1 {
			layer = append(layer, layer[len(layer)-1])
		}
		next := make([]hash.Hash, len(layer)/2)
		for i := range next {
			concat := make([]byte, 0, 64)
			concat = append(concat, layer[2*i][:]...)
			concat = append(concat, layer[2*i+1][:]...)
			next[i] = hash.DoubleSHA256(concat)
		}
		layer = next
	}
	return layer[0]
}

func varIntSize(n int) int {
	switch {
	case n < 0xfd:
		return 1
	case n <= 0xffff:
		return 3
	case n <= 0xffffffff:
		return 5
	default:
		return 9
	}
}
