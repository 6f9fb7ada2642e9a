// Package blockindex models the tip metadata the assembler reads from
// the host chain — never chain storage or reorg logic itself, both of
// which spec.md §7 names as external collaborators.
package blockindex

import (
	"sort"

	"github.com/copernet/blockassembler/util/hash"
)

// BlockIndex is the minimal view of a connected block the assembler
// needs: its height, hash-adjacent identity, and timestamp history far
// enough back to compute median-time-past.
type BlockIndex struct {
	BlockHash      hash.Hash
	Height         int32
	Time           uint32
	Bits           uint32
	prev           *BlockIndex
	IsProofOfStake bool
}

func New(h hash.Hash, height int32, t, bits uint32, prev *BlockIndex) *BlockIndex {
	return &BlockIndex{BlockHash: h, Height: height, Time: t, Bits: bits, prev: prev}
}

func (bi *BlockIndex) Hash() hash.Hash { return bi.BlockHash }

func (bi *BlockIndex) Prev() *BlockIndex { return bi.prev }

// GetMedianTimePast implements the standard 11-block median used to
// floor new block timestamps (spec.md §4.7, GLOSSARY).
func (bi *BlockIndex) GetMedianTimePast() int64 {
	const span = 11
	times := make([]uint32, 0, span)
	node := bi
	for i := 0; i < span && node != nil; i++ {
		times = append(times, node.Time)
		node = node.prev
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	return int64(times[len(times)/2])
}
