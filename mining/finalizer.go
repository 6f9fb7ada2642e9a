package mining

import (
	"time"

	"github.com/copernet/blockassembler/consensus"
	"github.com/copernet/blockassembler/errcode"
	"github.com/copernet/blockassembler/log"
	"github.com/copernet/blockassembler/model/block"
	"github.com/copernet/blockassembler/model/blockindex"
	"github.com/copernet/blockassembler/model/outpoint"
	"github.com/copernet/blockassembler/model/tx"
	"github.com/copernet/blockassembler/model/txin"
	"github.com/copernet/blockassembler/model/txout"
	"github.com/copernet/blockassembler/util/amount"
	"github.com/copernet/blockassembler/util/hash"
)

// TimeSource stands in for GetAdjustedTime(): network-time-adjusted
// wall clock. The assembler never samples network time itself
// (out of scope, spec.md §1); a real host injects this.
type TimeSource interface {
	AdjustedTime() int64
}

type systemTimeSource struct{}

func (systemTimeSource) AdjustedTime() int64 { return time.Now().Unix() }

// SystemTimeSource is the default TimeSource, usable wherever no
// network-time-adjustment collaborator is wired yet.
var SystemTimeSource TimeSource = systemTimeSource{}

// CreateNewBlock is the Template Finalizer's entry point (spec.md
// §4.7): it runs the Priority Reservation prefix, then the
// Ancestor-Score Selector, then closes the block. isPoS selects
// between a PoW coinbase (paid directly to scriptPubKey) and a PoS
// placeholder coinbase (empty output; the caller receives the intended
// stake reward via outStakeReward and inserts the signed coinstake
// later via SignBlock). CreateNewBlock fails (returns nil) iff isPoS
// and outStakeReward is nil, matching spec.md §6.
func (ba *BlockAssembler) CreateNewBlock(scriptPubKey []byte, isPoS bool, outStakeReward *amount.Amount, includeWitness bool, ts TimeSource) (*BlockTemplate, error) {
	if isPoS && outStakeReward == nil {
		return nil, errcode.New(errcode.ErrNoAvailableCoinstake)
	}

	ba.includeWitness = includeWitness
	ba.resetBlock()
	ba.computeMaxGeneratedBlockSize()

	tip := ba.chn.Tip()
	if tip == nil {
		ba.height = 0
	} else {
		ba.height = tip.Height + 1
	}

	var prevHash hash.Hash
	var bits uint32
	var version int32 = tx.DefaultVersion
	if tip != nil {
		prevHash = tip.Hash()
		bits = tip.Bits
		version = ba.chn.ComputeBlockVersion(tip)
	}

	ba.template = &BlockTemplate{
		Block:         block.New(prevHash, bits, version),
		TxFees:        make([]amount.Amount, 1, 128),
		TxSigOpsCount: make([]int, 1, 128),
	}
	ba.template.TxFees[0] = -1
	ba.template.TxSigOpsCount[0] = -1
	// placeholder coinbase, overwritten below once fees are known so
	// the selector's byte accounting already reflects a real slot.
	ba.template.Block.AddTx(tx.NewCoinbase(nil, 0xffffffff))

	if tip != nil {
		mtp := tip.GetMedianTimePast()
		if consensus.StandardLocktimeVerifyFlags&consensus.LocktimeMedianTimePast != 0 {
			ba.lockTimeCutoff = mtp
		} else {
			ba.lockTimeCutoff = int64(ba.template.Block.Header.Time)
		}
	}

	adjustedTime := ts.AdjustedTime()
	ba.addPriorityTxs(ba.cfg.Mining.BlockPrioritySize, adjustedTime)
	ba.addPackageTxs()

	ba.lastStats = LastBlockStats{Tx: uint64(ba.blockTx), Size: uint64(ba.blockSize), Weight: uint64(ba.blockWeight)}

	coinbase := tx.NewCoinbase(nil, 0xffffffff)
	var reward amount.Amount
	if isPoS {
		coinbase.AddOut(txout.New(0, nil))
		reward = ba.fees + *outStakeReward
		*outStakeReward = reward
	} else {
		scriptSig := heightScriptSig(ba.height)
		coinbase.Ins[0] = txin.New(outpoint.Null(), scriptSig, 0xffffffff)
		if sz := coinbase.SerializeSize(); sz < consensus.MinTxSize {
			pad := make([]byte, consensus.MinTxSize-sz-1)
			coinbase.Ins[0].ScriptSig = append(coinbase.Ins[0].ScriptSig, pad...)
		}
		reward = ba.fees + ba.chn.GetBlockSubsidy(ba.height)
		coinbase.AddOut(txout.New(reward, scriptPubKey))
	}
	ba.template.Block.Txs[0] = coinbase
	ba.template.TxFees[0] = -ba.fees
	// legacy sigop counting requires script interpretation, which is
	// out of scope (spec.md §1); real hosts wire a counter here.
	ba.template.TxSigOpsCount[0] = 0

	if tip != nil {
		ba.template.Block.Header.Bits = ba.diff.GetNextWorkRequired(tip, isPoS)
	}
	ba.template.Block.Header.Nonce = 0

	if commitment := ba.generateCoinbaseCommitment(); commitment != nil {
		ba.template.Block.Txs[0].AddOut(txout.New(0, commitment))
		ba.template.WitnessCommitment = commitment
	}

	ba.updateTime(tip, ts, isPoS, ba.template.Block.MaxTransactionTime())
	ba.template.Block.Header.HashMerkleRoot = ba.template.Block.MerkleRoot()

	log.Print("mining", "info", "CreateNewBlock(): total size: %d txs: %d fees: %d sigops %d",
		ba.template.Block.SerializeSize(), ba.blockTx, int64(ba.fees), ba.blockSigOpsCost)

	return ba.template, nil
}

// heightScriptSig builds the BIP34-style "(height) OP_0" coinbase
// scriptSig prefix spec.md §4.7 requires for a PoW coinbase's null
// input.
func heightScriptSig(height int32) []byte {
	n := uint32(height)
	var enc []byte
	for n > 0 {
		enc = append(enc, byte(n&0xff))
		n >>= 8
	}
	if len(enc) > 0 && enc[len(enc)-1]&0x80 != 0 {
		enc = append(enc, 0)
	}
	script := append([]byte{byte(len(enc))}, enc...)
	return append(script, 0x00) // OP_0
}

// LastStats returns the observability struct published by the most
// recent CreateNewBlock call (spec.md §4.7 step 1).
func (ba *BlockAssembler) LastStats() LastBlockStats { return ba.lastStats }

// updateTime implements spec.md §4.8: it recomputes the header
// timestamp from median-time-past and adjusted time (PoW) or
// max-tx-time and PastDrift (PoS), and re-derives difficulty since
// some networks make bits a function of the timestamp. Returns the
// delta applied.
func (ba *BlockAssembler) updateTime(tip *blockindex.BlockIndex, ts TimeSource, isPoS bool, maxTxTime int64) int64 {
	if tip == nil {
		return 0
	}
	b := ba.template.Block
	oldTime := int64(b.Header.Time)
	mtp := tip.GetMedianTimePast()

	var newTime int64
	if !isPoS {
		newTime = mtp + consensus.BlockLimiterTime + 1
		if adj := ts.AdjustedTime(); adj > newTime {
			newTime = adj
		}
	} else {
		newTime = mtp + consensus.BlockLimiterTime + 1
		if maxTxTime > newTime {
			newTime = maxTxTime
		}
		if drift := ba.chn.PastDrift(int64(tip.Time)); drift > newTime {
			newTime = drift
		}
	}

	if oldTime < newTime {
		b.Header.Time = uint32(newTime)
		b.Header.Bits = ba.diff.GetNextWorkRequired(tip, isPoS)
	}
	return newTime - oldTime
}
