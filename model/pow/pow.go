// Package pow provides the difficulty-target interface the Template
// Finalizer consults, and the PoW share-target check used by
// mining.CheckWork. Full retargeting logic (network difficulty
// adjustment) lives on the host chain; spec.md §7 names it as an
// external collaborator, so DifficultyCalculator here is the seam.
package pow

import (
	"math/big"

	"github.com/copernet/blockassembler/model/blockindex"
	"github.com/copernet/blockassembler/util/hash"
)

// DifficultyCalculator mirrors GetNextWorkRequired: given the tip a
// candidate block extends and whether it is a PoS block, it returns
// the compact difficulty bits that block must satisfy.
type DifficultyCalculator interface {
	GetNextWorkRequired(tip *blockindex.BlockIndex, proofOfStake bool) uint32
}

// CompactToBig expands a compact ("nBits") difficulty encoding to a
// big.Int target, the standard Bitcoin-style representation.
func CompactToBig(compact uint32) *big.Int {
	mantissa := compact & 0x007fffff
	exponent := compact >> 24
	target := new(big.Int).SetUint64(uint64(mantissa))
	if exponent <= 3 {
		target.Rsh(target, uint(8*(3-exponent)))
	} else {
		target.Lsh(target, uint(8*(exponent-3)))
	}
	return target
}

// HashToBig reinterprets a hash as a big.Int for target comparison,
// matching the little-endian convention proof-of-work hashes use.
func HashToBig(h hash.Hash) *big.Int {
	reversed := make([]byte, len(h))
	for i, b := range h {
		reversed[len(h)-1-i] = b
	}
	return new(big.Int).SetBytes(reversed)
}

// CheckProofOfWork reports whether h satisfies the target implied by
// compact bits, the check original_source/src/miner.cpp's CheckWork
// performs before relaying a mined block.
func CheckProofOfWork(h hash.Hash, bits uint32) bool {
	target := CompactToBig(bits)
	if target.Sign() <= 0 {
		return false
	}
	return HashToBig(h).Cmp(target) <= 0
}
