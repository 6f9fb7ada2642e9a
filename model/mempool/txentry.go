// Package mempool models the fee/weight/priority bookkeeping the Fee
// and Weight Accountant and Ancestor-Score Selector read (spec.md §4.1,
// §4.2, §4.4). TxEntry mirrors the teacher's txentry.go: a mempool
// admission wraps a tx.Tx with everything the selector needs without
// re-deriving it, and ancestor/descendant aggregates are kept current
// incrementally rather than recomputed on each read.
package mempool

import (
	"unsafe"

	"github.com/copernet/blockassembler/model/blockindex"
	"github.com/copernet/blockassembler/model/tx"
	"github.com/copernet/blockassembler/util/amount"
	"github.com/copernet/blockassembler/util/feerate"
	"github.com/google/btree"
)

// LockPoints records the height/time/block a transaction's relative
// locktime inputs resolved final at, so a later admitted transaction
// can be judged final again cheaply (spec.md §4.2's finality check).
type LockPoints struct {
	Height        int32
	Time          int64
	MaxInputBlock *blockindex.BlockIndex
}

type TxEntry struct {
	Tx *tx.Tx
	// TxSize is the transaction's own serialized size, in bytes.
	TxSize int
	// TxFee is the transaction's own absolute fee, in satoshis.
	TxFee int64
	// TxHeight is the height the transaction was admitted at.
	TxHeight int32
	// SigOpCount is the transaction's own weighted sigop cost.
	SigOpCount int
	// time is when the transaction entered the mempool.
	time int64
	// usageSize is this entry's own approximate memory footprint.
	usageSize int
	// ChildTx / ParentTx are this entry's direct mempool
	// descendants/ancestors — one hop only, not the full closure.
	ChildTx  map[*TxEntry]struct{}
	ParentTx map[*TxEntry]struct{}
	// lp is the height/time this transaction's locktime last
	// resolved final at.
	lp LockPoints
	// spendsCoinbase is true if any input spends an immature or
	// mature coinbase output.
	spendsCoinbase bool

	// PriorityValueSum and PriorityHeightSum let GetPriority recompute
	// coin-age priority at any later height without re-reading the
	// coin view: priority(h) = (h*PriorityValueSum -
	// PriorityHeightSum) / TxSize, the same incremental decomposition
	// Bitcoin Core's ComputePriority uses. Zero until the admission
	// path (outside this package) sets them from the spent coins.
	PriorityValueSum  int64
	PriorityHeightSum int64

	StatisInformation
}

// GetPriority computes coin-age priority as of currentHeight: the sum
// of each spent coin's value times its confirmation count, divided by
// this transaction's size (spec.md §4.4's priority metric, GLOSSARY).
func (t *TxEntry) GetPriority(currentHeight int32) float64 {
	if t.TxSize == 0 {
		return 0
	}
	sum := float64(currentHeight)*float64(t.PriorityValueSum) - float64(t.PriorityHeightSum)
	return sum / float64(t.TxSize)
}

// StatisInformation holds the running ancestor/descendant aggregates
// the selector reads without ever walking the mempool graph on the hot
// path — updated incrementally as entries are admitted, removed, or
// committed to a template (spec.md §4.4's ancestor score).
type StatisInformation struct {
	SumTxCountWithDescendants int64
	SumTxFeeWithDescendants   int64
	SumTxSizeWithDescendants  int64

	SumTxCountWithAncestors      int64
	SumTxSizeWitAncestors        int64
	SumTxSigOpCountWithAncestors int64
	SumTxFeeWithAncestors        int64
}

func NewTxentry(t *tx.Tx, txFee int64, acceptTime int64, height int32, lp LockPoints, sigOpsCount int,
	spendsCoinbase bool) *TxEntry {
	e := &TxEntry{
		Tx:             t,
		time:           acceptTime,
		TxSize:         t.SerializeSize(),
		TxFee:          txFee,
		spendsCoinbase: spendsCoinbase,
		lp:             lp,
		TxHeight:       height,
		SigOpCount:     sigOpsCount,
		ParentTx:       make(map[*TxEntry]struct{}),
		ChildTx:        make(map[*TxEntry]struct{}),
	}
	e.usageSize = e.TxSize + int(unsafe.Sizeof(*e))

	e.SumTxSizeWithDescendants = int64(e.TxSize)
	e.SumTxFeeWithDescendants = txFee
	e.SumTxCountWithDescendants = 1

	e.SumTxFeeWithAncestors = txFee
	e.SumTxSizeWitAncestors = int64(e.TxSize)
	e.SumTxCountWithAncestors = 1
	e.SumTxSigOpCountWithAncestors = int64(sigOpsCount)

	return e
}

func (t *TxEntry) GetSigOpCountWithAncestors() int64 { return t.SumTxSigOpCountWithAncestors }
func (t *TxEntry) GetUsageSize() int64               { return int64(t.usageSize) }
func (t *TxEntry) GetSpendsCoinbase() bool            { return t.spendsCoinbase }
func (t *TxEntry) GetTime() int64                     { return t.time }
func (t *TxEntry) GetLockPoints() LockPoints          { return t.lp }
func (t *TxEntry) SetLockPoints(lp LockPoints)        { t.lp = lp }

// UpdateParent adds or removes a direct-ancestor edge.
func (t *TxEntry) UpdateParent(parent *TxEntry, add bool) {
	if add {
		t.ParentTx[parent] = struct{}{}
		return
	}
	delete(t.ParentTx, parent)
}

// UpdateChild adds or removes a direct-descendant edge.
func (t *TxEntry) UpdateChild(child *TxEntry, add bool) {
	if add {
		t.ChildTx[child] = struct{}{}
		return
	}
	delete(t.ChildTx, child)
}

// UpdateChildOfParents mirrors this entry into (or out of) every
// direct parent's ChildTx set — called once on admission/removal so
// the two adjacency maps never drift apart.
func (t *TxEntry) UpdateChildOfParents(add bool) {
	for parent := range t.ParentTx {
		parent.UpdateChild(t, add)
	}
}

func (t *TxEntry) UpdateDescendantState(updateCount, updateSize int, updateFee int64) {
	t.SumTxCountWithDescendants += int64(updateCount)
	t.SumTxSizeWithDescendants += int64(updateSize)
	t.SumTxFeeWithDescendants += updateFee
}

func (t *TxEntry) UpdateAncestorState(updateCount, updateSize, updateSigOps int, updateFee int64) {
	t.SumTxSizeWitAncestors += int64(updateSize)
	t.SumTxCountWithAncestors += int64(updateCount)
	t.SumTxSigOpCountWithAncestors += int64(updateSigOps)
	t.SumTxFeeWithAncestors += updateFee
}

// GetFeeRate is this entry's own (non-ancestor) feerate.
func (t *TxEntry) GetFeeRate() feerate.FeeRate {
	return feerate.NewWithSize(amount.Amount(t.TxFee), int64(t.TxSize))
}

// CheckLockPointValidity reports whether the block this entry's
// relative locktime last resolved against is still an ancestor of
// tip — if the chain has reorganized past it, the caller must
// recheck finality before this entry can be selected.
func (t *TxEntry) CheckLockPointValidity(tip *blockindex.BlockIndex) bool {
	if t.lp.MaxInputBlock == nil {
		return true
	}
	for node := tip; node != nil; node = node.Prev() {
		if node == t.lp.MaxInputBlock {
			return true
		}
	}
	return false
}

// CompareByScore orders two entries by their own (non-ancestor) fee
// rate, descending, tie-broken by txid — original_source/src/
// miner.cpp:55-64's ScoreCompare/CompareTxMemPoolEntryByScore, restored
// as a plain comparator rather than a heap functor since Go's
// container/heap takes a Less method on the container, not a
// standalone predicate object. Exposed for callers building an
// auxiliary highest-fee-first ordering over the mempool outside the
// ancestor-score selector's own indices, e.g. a getblocktemplate-style
// consumer that wants "top N by own feerate" independent of ancestor
// packaging.
func CompareByScore(a, b *TxEntry) bool {
	f1 := float64(a.TxFee) * float64(b.TxSize)
	f2 := float64(a.TxSize) * float64(b.TxFee)
	if f1 == f2 {
		h1, h2 := a.Tx.GetHash(), b.Tx.GetHash()
		return h1.Cmp(&h2) < 0
	}
	return f1 > f2
}

// Less orders entries by mempool entry time, the tiebreak the teacher
// uses for the primary txid-adjacent index.
func (t *TxEntry) Less(than btree.Item) bool {
	other := than.(*TxEntry)
	if t.time == other.time {
		h1, h2 := t.Tx.GetHash(), other.Tx.GetHash()
		return h1.Cmp(&h2) > 0
	}
	return t.time < other.time
}

// EntryFeeSort orders by absolute ancestor fee, descending, with a
// txid tiebreak.
type EntryFeeSort TxEntry

func (e *EntryFeeSort) Less(than btree.Item) bool {
	o := than.(*EntryFeeSort)
	if e.SumTxFeeWithAncestors == o.SumTxFeeWithAncestors {
		h1, h2 := e.Tx.GetHash(), o.Tx.GetHash()
		return h1.Cmp(&h2) > 0
	}
	return e.SumTxFeeWithAncestors > o.SumTxFeeWithAncestors
}

// EntryAncestorFeeRateSort orders by ancestor feerate, descending —
// the Ancestor-Score Selector's primary ordering (spec.md §4.4.1).
type EntryAncestorFeeRateSort TxEntry

func (r *EntryAncestorFeeRateSort) Less(than btree.Item) bool {
	o := than.(*EntryAncestorFeeRateSort)
	r1 := feerate.NewWithSize(amount.Amount(r.SumTxFeeWithAncestors), r.SumTxSizeWitAncestors)
	r2 := feerate.NewWithSize(amount.Amount(o.SumTxFeeWithAncestors), o.SumTxSizeWitAncestors)
	if r1.SatoshisPerK == r2.SatoshisPerK {
		h1, h2 := r.Tx.GetHash(), o.Tx.GetHash()
		return h1.Cmp(&h2) > 0
	}
	return r1.SatoshisPerK > r2.SatoshisPerK
}
