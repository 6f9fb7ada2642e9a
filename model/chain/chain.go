// Package chain exposes the narrow read-only view of the active chain
// the assembler needs: its tip and the ability to look transactions'
// spent coins up. spec.md §7 names full chain state/coin-view storage
// as an external collaborator; Chain and CoinView here are the interface
// boundary, not an implementation.
package chain

import (
	"github.com/copernet/blockassembler/model/blockindex"
	"github.com/copernet/blockassembler/model/outpoint"
	"github.com/copernet/blockassembler/model/txout"
	"github.com/copernet/blockassembler/util/amount"
)

// Chain is satisfied by whatever the host process uses to track the
// best chain and its consensus rules. Every method here corresponds
// to a bullet under spec.md §6's "Interfaces the core consumes / From
// the chain" — the assembler treats all of it as borrowed, read-only
// state for the duration of one createNewBlock call.
type Chain interface {
	Tip() *blockindex.BlockIndex
	// ComputeBlockVersion returns the version field a new block
	// extending prev should carry (soft-fork signaling bits).
	ComputeBlockVersion(prev *blockindex.BlockIndex) int32
	// IsWitnessEnabled reports whether segregated witness rules are
	// active for a block extending prev.
	IsWitnessEnabled(prev *blockindex.BlockIndex) bool
	// GetBlockSubsidy returns the PoW coinbase reward at height.
	GetBlockSubsidy(height int32) amount.Amount
	// GetProofOfStakeReward returns the PoS stake reward at height.
	GetProofOfStakeReward(height int32) amount.Amount
	// PastDrift bounds how far into the past a PoS block's timestamp
	// may legally sit relative to tipTime.
	PastDrift(tipTime int64) int64
}

// CoinView answers whether an outpoint is a still-unspent coin and, if
// so, what output and originating height it refers to — used by the
// coin-age priority calculation (spec.md §4.4) and to detect
// spends-a-coinbase ancestors.
type CoinView interface {
	GetCoin(op outpoint.OutPoint) (out *txout.TxOut, height int32, isCoinBase bool, ok bool)
}
