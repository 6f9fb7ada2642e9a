// Package mining implements the block template assembler: the Fee/
// Weight Accountant (this file), the Ancestor-Score Selector
// (selector.go, modified_entry.go), the Priority Reservation
// (priority.go), and the Template Finalizer (finalizer.go), plus the
// PoW/PoS driver-facing operations (extranonce.go, submit.go,
// staking.go, control.go, databuffer.go). Grounded throughout on
// original_source/src/miner.cpp's BlockAssembler and on the teacher's
// service/mining/mining.go.
package mining

import (
	"github.com/copernet/blockassembler/conf"
	"github.com/copernet/blockassembler/consensus"
	"github.com/copernet/blockassembler/model/block"
	"github.com/copernet/blockassembler/model/chain"
	"github.com/copernet/blockassembler/model/mempool"
	"github.com/copernet/blockassembler/model/pow"
	"github.com/copernet/blockassembler/util/amount"
	"github.com/copernet/blockassembler/util/feerate"
	"github.com/copernet/blockassembler/util/hash"
)

// BlockTemplate is the assembler's published output: the candidate
// block plus per-transaction fee/sigop bookkeeping the caller (RPC,
// staking driver) needs without re-deriving it. vTxFees[0] carries the
// negative-fee-sum sentinel per spec.md §3.
type BlockTemplate struct {
	Block             *block.Block
	TxFees            []amount.Amount
	TxSigOpsCount     []int
	WitnessCommitment []byte
}

// LastBlockStats is the small observability struct spec.md §9 asks
// for in place of bare global counters: nLastBlockTx/Size/Weight
// published after each successful template.
type LastBlockStats struct {
	Tx     uint64
	Size   uint64
	Weight uint64
}

// BlockAssembler holds one createNewBlock call's mutable
// block-in-progress state (spec.md §3's Block-in-progress state) plus
// the read-only collaborators it borrows for the call's duration.
type BlockAssembler struct {
	pool  *mempool.TxMempool
	chn   chain.Chain
	coins chain.CoinView
	diff  pow.DifficultyCalculator
	cfg   *conf.Configuration

	template *BlockTemplate

	maxGeneratedBlockWeight int64
	maxGeneratedBlockSize   int64
	blockMinFeeRate         feerate.FeeRate
	needSizeAccounting      bool

	blockSize        int64
	blockWeight       int64
	blockSigOpsCost   int64
	blockTx           int64
	fees              amount.Amount
	inBlock           map[hash.Hash]struct{}
	height            int32
	lockTimeCutoff    int64
	includeWitness    bool
	lastFewTxs        int
	blockFinished     bool

	lastStats LastBlockStats
}

// NewBlockAssembler wires the assembler against its collaborators —
// the mempool it walks, the chain it reads the tip from, the coin
// view priority reservation needs, and the difficulty calculator the
// finalizer consults.
func NewBlockAssembler(cfg *conf.Configuration, pool *mempool.TxMempool, chn chain.Chain, coins chain.CoinView, diff pow.DifficultyCalculator) *BlockAssembler {
	ba := &BlockAssembler{
		pool:  pool,
		chn:   chn,
		coins: coins,
		diff:  diff,
		cfg:   cfg,
	}
	ba.blockMinFeeRate = feerate.New(cfg.Mining.BlockMinTxFee)
	ba.computeMaxGeneratedBlockSize()
	return ba
}

// computeMaxGeneratedBlockSize applies the clamps spec.md §4.1
// requires: weight in [4000, MaxBlockWeight-4000], size in
// [1000, MaxBlockSerializedSize-1000].
func (ba *BlockAssembler) computeMaxGeneratedBlockSize() {
	weight := int64(ba.cfg.Mining.BlockMaxWeight)
	if weight < 4000 {
		weight = 4000
	}
	if max := int64(consensus.MaxBlockWeight - 4000); weight > max {
		weight = max
	}
	ba.maxGeneratedBlockWeight = weight

	size := int64(ba.cfg.Mining.BlockMaxSize)
	if size < 1000 {
		size = 1000
	}
	if max := int64(consensus.MaxBlockSerializedSize - 1000); size > max {
		size = max
	}
	ba.maxGeneratedBlockSize = size

	ba.needSizeAccounting = ba.maxGeneratedBlockSize < int64(consensus.MaxBlockSerializedSize-1000)
}

// resetBlock reinitializes the block-in-progress state, reserving
// space for the not-yet-built coinbase (spec.md §4.1).
func (ba *BlockAssembler) resetBlock() {
	ba.inBlock = make(map[hash.Hash]struct{})
	ba.blockSize = 1000
	ba.blockWeight = 4000
	ba.blockSigOpsCost = 400
	ba.blockTx = 0
	ba.fees = 0
	ba.lastFewTxs = 0
	ba.blockFinished = false
}

// TestPackage is the fast pre-ancestor-fetch admission check
// (spec.md §4.2): packageSize stands in for weight (a conservative
// vsize proxy), so the multiplication by WitnessScaleFactor here is
// deliberate, not a duplicate of the caller's own weight accounting.
func (ba *BlockAssembler) TestPackage(packageSize, packageSigOpsCost int64) bool {
	if ba.blockWeight+consensus.WitnessScaleFactor*packageSize >= ba.maxGeneratedBlockWeight {
		return false
	}
	if ba.blockSigOpsCost+packageSigOpsCost >= consensus.MaxBlockSigOpsCost {
		return false
	}
	return true
}

// TestForBlock is the per-transaction fit check once a package has
// already passed TestPackageTransactions; it also drives the
// nearly-full/blockFinished heuristic (spec.md §4.2).
func (ba *BlockAssembler) TestForBlock(e *mempool.TxEntry) bool {
	nextWeight := ba.blockWeight + int64(e.Tx.GetWeight(consensus.WitnessScaleFactor))
	if nextWeight >= ba.maxGeneratedBlockWeight {
		if ba.maxGeneratedBlockWeight-ba.blockWeight < 4000 {
			ba.lastFewTxs++
		}
		if ba.blockWeight > ba.maxGeneratedBlockWeight-400 || ba.lastFewTxs > 50 {
			ba.blockFinished = true
		}
		return false
	}
	if ba.needSizeAccounting {
		nextSize := ba.blockSize + int64(e.TxSize)
		if nextSize >= ba.maxGeneratedBlockSize {
			if ba.maxGeneratedBlockSize-ba.blockSize < 1000 {
				ba.lastFewTxs++
			}
			if ba.blockSize > ba.maxGeneratedBlockSize-100 || ba.lastFewTxs > 50 {
				ba.blockFinished = true
			}
			return false
		}
	}
	if ba.blockSigOpsCost+int64(e.SigOpCount) >= consensus.MaxBlockSigOpsCost {
		if ba.blockSigOpsCost > consensus.MaxBlockSigOpsCost-8 {
			ba.blockFinished = true
		}
		return false
	}
	if !e.Tx.IsFinal(ba.height, ba.lockTimeCutoff) {
		return false
	}
	return true
}

// AddToBlock commits e to the template and updates every accounting
// counter (spec.md §4.6).
func (ba *BlockAssembler) AddToBlock(e *mempool.TxEntry) {
	ba.template.Block.AddTx(e.Tx)
	ba.template.TxFees = append(ba.template.TxFees, amount.Amount(e.TxFee))
	ba.template.TxSigOpsCount = append(ba.template.TxSigOpsCount, e.SigOpCount)
	if ba.needSizeAccounting {
		ba.blockSize += int64(e.TxSize)
	}
	ba.blockWeight += int64(e.Tx.GetWeight(consensus.WitnessScaleFactor))
	ba.blockTx++
	ba.blockSigOpsCost += int64(e.SigOpCount)
	ba.fees += amount.Amount(e.TxFee)
	ba.inBlock[e.Tx.GetHash()] = struct{}{}
}
