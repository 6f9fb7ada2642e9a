package mining

import (
	"github.com/copernet/blockassembler/conf"
	"github.com/copernet/blockassembler/model/block"
	"github.com/copernet/blockassembler/model/blockindex"
	"github.com/copernet/blockassembler/model/mempool"
	"github.com/copernet/blockassembler/model/outpoint"
	"github.com/copernet/blockassembler/model/tx"
	"github.com/copernet/blockassembler/model/txin"
	"github.com/copernet/blockassembler/model/txout"
	"github.com/copernet/blockassembler/util/amount"
	"github.com/copernet/blockassembler/util/hash"
)

// fakeChain is a minimal chain.Chain double: fixed subsidy/version/
// drift, no soft-fork signaling, segwit always on.
type fakeChain struct {
	tip *blockindex.BlockIndex
}

func (f *fakeChain) Tip() *blockindex.BlockIndex { return f.tip }
func (f *fakeChain) ComputeBlockVersion(prev *blockindex.BlockIndex) int32 {
	return tx.DefaultVersion
}
func (f *fakeChain) IsWitnessEnabled(prev *blockindex.BlockIndex) bool { return true }
func (f *fakeChain) GetBlockSubsidy(height int32) amount.Amount       { return 50 * amount.Coin }
func (f *fakeChain) GetProofOfStakeReward(height int32) amount.Amount { return amount.Coin }
func (f *fakeChain) PastDrift(tipTime int64) int64                    { return tipTime + 15 }

// fakeCoins never resolves an outpoint; the priority phase in these
// tests seeds PriorityValueSum/PriorityHeightSum directly instead.
type fakeCoins struct{}

func (fakeCoins) GetCoin(op outpoint.OutPoint) (*txout.TxOut, int32, bool, bool) {
	return nil, 0, false, false
}

// fakeDifficulty returns a fixed, easily-satisfied compact target.
type fakeDifficulty struct{ bits uint32 }

func (f fakeDifficulty) GetNextWorkRequired(tip *blockindex.BlockIndex, proofOfStake bool) uint32 {
	return f.bits
}

// fakeTimeSource returns a fixed adjusted time so tests are
// deterministic without touching the wall clock.
type fakeTimeSource int64

func (f fakeTimeSource) AdjustedTime() int64 { return int64(f) }

func testConfig() *conf.Configuration {
	cfg := &conf.Configuration{}
	cfg.Mining.BlockMaxWeight = 400000
	cfg.Mining.BlockMaxSize = 100000
	cfg.Mining.BlockPrioritySize = 0
	cfg.Mining.BlockMinTxFee = 1000
	cfg.Mining.CoinbaseFlags = "/test/"
	return cfg
}

func newTestAssembler(pool *mempool.TxMempool, tip *blockindex.BlockIndex) *BlockAssembler {
	return NewBlockAssembler(testConfig(), pool, &fakeChain{tip: tip}, fakeCoins{}, fakeDifficulty{bits: 0x207fffff})
}

// buildTx returns a standalone transaction with a single output of
// value satoshis and a unique identity via nonce (folded into
// LockTime, which does not otherwise matter for these tests since
// finality is checked against height 0 / lockTimeCutoff 0).
func buildTx(nonce uint32, value amount.Amount) *tx.Tx {
	t := tx.New(tx.DefaultVersion, 0)
	t.AddIn(txin.New(outpoint.OutPoint{Hash: hash.Hash{byte(nonce), byte(nonce >> 8)}, Index: 0}, nil, 0xffffffff))
	t.AddOut(txout.New(value, nil))
	return t
}

func addEntry(pool *mempool.TxMempool, t *tx.Tx, fee int64) *mempool.TxEntry {
	e := mempool.NewTxentry(t, fee, 0, 1, mempool.LockPoints{}, 0, false)
	pool.AddUnchecked(e, nil)
	return e
}

func newTestBlock() *block.Block {
	return block.New(hash.Zero, 0x207fffff, tx.DefaultVersion)
}
