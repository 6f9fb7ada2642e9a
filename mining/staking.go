// Package mining's staking driver: the PoS analogue of the PoW mining
// loop, grounded on original_source/src/miner.cpp's BitcoinStaker and
// SignBlock. spec.md §5 asks for thread-interruption exceptions to be
// replaced by a cooperative cancellation token — context.Context is
// that token here, consulted at every sleep and at the top of each
// loop iteration (spec.md §9's "Driver cancellation").
package mining

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/copernet/blockassembler/consensus"
	"github.com/copernet/blockassembler/log"
	"github.com/copernet/blockassembler/model/tx"
	"github.com/copernet/blockassembler/util/amount"
)

// CoinStaker searches the kernel window for a spendable, mature coin
// that satisfies the stake target and builds the coinstake transaction
// spending it. The stake kernel search itself is out of scope
// (spec.md §1); this is the seam CreateCoinStake corresponds to.
type CoinStaker interface {
	CreateCoinStake(searchInterval int64, reward amount.Amount) (*tx.Tx, error)
}

// BlockSigner signs the block hash once a coinstake has been placed.
type BlockSigner interface {
	SignBlockHash(digest [32]byte) ([]byte, error)
}

// NetworkReadiness gates the driver loop the way spec.md §5's staking
// driver sketch does: peers present, not mid-initial-sync, wallet
// unlocked.
type NetworkReadiness interface {
	HasPeers() bool
	IsInitialBlockDownload() bool
	WalletLocked() bool
}

// lastCoinStakeSearchTime is the absolute wall-clock time of the most
// recent search attempt that cleared the search gate below;
// lastCoinStakeSearchInterval is the delta since the attempt before
// that, published for observability (spec.md §5's "Shared mutable
// state owned by the core").
var (
	lastCoinStakeSearchTime     int64
	lastCoinStakeSearchInterval int64
)

func LastCoinStakeSearchInterval() int64 { return lastCoinStakeSearchInterval }

// SignBlock implements spec.md §6's signBlock: only proceeds if the
// coinbase output is still empty (unsigned), the block does not
// already carry a coinstake, and searchTime — the caller's current
// absolute wall-clock time — has actually advanced since the last
// search attempt (original_source/src/miner.cpp:794's
// `nSearchTime > nLastCoinStakeSearchTime` gate). Once past that gate
// it searches the kernel window, and only inserts+signs the resulting
// coinstake if its own timestamp clears the same floor
// CreateNewBlock's PoS branch uses
// (`max(mtp+BLOCK_LIMITER_TIME+1, PastDrift(tip.Time))`); a coinstake
// that fails the floor is a no-op, not an error, matching the
// original's "return false" on a stale kernel.
//
// spec.md §9 flags a specific bug in the source this was ported from:
// the local filtered-by-future-timestamp copy of the transaction list
// is built but never written back to the block, so future-timestamp
// transactions are not actually dropped from the signed block. That
// is reproduced here deliberately rather than silently fixed, since
// fixing it would change consensus-visible behavior of a host chain
// this module does not own.
func (ba *BlockAssembler) SignBlock(staker CoinStaker, signer BlockSigner, searchTime int64) error {
	if ba.template == nil || len(ba.template.Block.Txs) == 0 {
		return nil
	}
	coinbase := ba.template.Block.Txs[0]
	if len(coinbase.Outs) == 0 || !coinbase.Outs[0].IsEmpty() {
		return nil // already signed, or not a PoS coinbase
	}
	if len(ba.template.Block.Txs) > 1 {
		// index 1 holds either the first mempool tx the assembler
		// selected or an already-inserted coinstake
		if _, selected := ba.inBlock[ba.template.Block.Txs[1].GetHash()]; !selected {
			return nil // coinstake already present
		}
	}
	if searchTime <= lastCoinStakeSearchTime {
		return nil
	}

	searchInterval := searchTime - lastCoinStakeSearchTime
	lastCoinStakeSearchTime = searchTime
	lastCoinStakeSearchInterval = searchInterval

	reward := ba.fees
	coinstake, err := staker.CreateCoinStake(searchInterval, reward)
	if err != nil {
		return errors.Wrap(err, "SignBlock: CreateCoinStake")
	}

	if tip := ba.chn.Tip(); tip != nil {
		floor := tip.GetMedianTimePast() + consensus.BlockLimiterTime + 1
		if drift := ba.chn.PastDrift(int64(tip.Time)); drift > floor {
			floor = drift
		}
		if coinstake.Time < floor {
			return nil // kernel too stale to clear the timestamp floor
		}
	}

	// filter transactions whose timestamp is after the block's own
	// time — intentionally not written back to ba.template.Block.Txs,
	// matching the source bug spec.md §9 documents.
	filtered := make([]*tx.Tx, 0, len(ba.template.Block.Txs))
	for _, t := range ba.template.Block.Txs {
		if t.Time <= int64(ba.template.Block.Header.Time) {
			filtered = append(filtered, t)
		}
	}
	_ = filtered

	txs := make([]*tx.Tx, 0, len(ba.template.Block.Txs)+1)
	txs = append(txs, ba.template.Block.Txs[0], coinstake)
	txs = append(txs, ba.template.Block.Txs[1:]...)
	ba.template.Block.Txs = txs

	if uint32(coinstake.Time) > ba.template.Block.Header.Time {
		ba.template.Block.Header.Time = uint32(coinstake.Time)
	}
	ba.template.Block.Header.HashMerkleRoot = ba.template.Block.MerkleRoot()

	digest := ba.template.Block.Header.HashMerkleRoot
	sig, err := signer.SignBlockHash([32]byte(digest))
	if err != nil {
		return errors.Wrap(err, "SignBlock: SignBlockHash")
	}
	_ = sig
	return nil
}

// StakingLoop is the illustrative driver sketch from spec.md §5: wait
// for network readiness, wait while staking is disabled, build a PoS
// template, attempt to sign it, and submit — cooperatively cancelable
// via ctx at every wait point.
func StakingLoop(ctx context.Context, ba *BlockAssembler, ready NetworkReadiness, staker CoinStaker, signer BlockSigner, sub Submitter, minerSleep time.Duration) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !ready.HasPeers() || ready.IsInitialBlockDownload() {
			if !sleepCtx(ctx, minerSleep) {
				return ctx.Err()
			}
			continue
		}
		if !GetStaking() {
			if !sleepCtx(ctx, minerSleep) {
				return ctx.Err()
			}
			continue
		}
		if ready.WalletLocked() {
			lastCoinStakeSearchInterval = 0
			if !sleepCtx(ctx, minerSleep) {
				return ctx.Err()
			}
			continue
		}

		nextHeight := int32(0)
		if tip := ba.chn.Tip(); tip != nil {
			nextHeight = tip.Height + 1
		}
		reward := ba.chn.GetProofOfStakeReward(nextHeight)
		template, err := ba.CreateNewBlock(nil, true, &reward, true, SystemTimeSource)
		if err != nil || template == nil {
			log.Print("staking", "error", "StakingLoop: failed to build PoS template: %v", err)
			return err
		}

		if err := ba.SignBlock(staker, signer, time.Now().Unix()); err != nil {
			if !sleepCtx(ctx, minerSleep) {
				return ctx.Err()
			}
			continue
		}

		result, err := CheckStake(ba.template.Block, ba.chn, staker.(StakeKernelVerifier), sub)
		if err != nil {
			log.Print("staking", "warn", "StakingLoop: CheckStake failed: %v", err)
		}
		_ = result
		if !sleepCtx(ctx, 500*time.Millisecond) {
			return ctx.Err()
		}
	}
}

// sleepCtx sleeps for d or returns early (false) if ctx is canceled,
// the cooperative-cancellation primitive spec.md §9 asks for in place
// of MilliSleep + a raised interruption exception.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
