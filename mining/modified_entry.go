package mining

import (
	"github.com/copernet/blockassembler/model/mempool"
	"github.com/copernet/blockassembler/util/amount"
	"github.com/copernet/blockassembler/util/feerate"
	"github.com/google/btree"
)

// modifiedEntry is the mutable shadow of a mempool entry spec.md §3
// calls the "Modified entry": created once some, but not all, of an
// entry's ancestors have been committed, so its ancestor aggregates no
// longer match the base mempool entry. It never mutates the mempool's
// own TxEntry (spec.md §9's "do not mutate the mempool").
type modifiedEntry struct {
	entry *mempool.TxEntry

	sizeWithAncestors       int64
	modFeesWithAncestors    int64
	sigOpCostWithAncestors  int64
}

func newModifiedEntry(e *mempool.TxEntry) *modifiedEntry {
	return &modifiedEntry{
		entry:                  e,
		sizeWithAncestors:      e.SumTxSizeWitAncestors,
		modFeesWithAncestors:   e.SumTxFeeWithAncestors,
		sigOpCostWithAncestors: e.SumTxSigOpCountWithAncestors,
	}
}

// applyAncestor decrements this entry's modified aggregates by a
// just-committed ancestor's own contribution — Invariant B (spec.md
// §3): committed ancestors of committed ancestors are never
// double-subtracted, because each ancestor's *own* size/fee/sigops
// (not its ancestor aggregate) is what gets charged.
//
// This only mutates the struct's fields; it does not touch any tree a
// modifiedEntry may already be indexed under. Callers repositioning an
// already-tracked entry must go through mapModifiedTx.applyAncestor
// instead, which deletes the stale tree node by its pre-mutation key
// before calling this.
func (m *modifiedEntry) applyAncestor(ancestor *mempool.TxEntry) {
	m.sizeWithAncestors -= int64(ancestor.TxSize)
	m.modFeesWithAncestors -= ancestor.TxFee
	m.sigOpCostWithAncestors -= int64(ancestor.SigOpCount)
}

func (m *modifiedEntry) feeRate() feerate.FeeRate {
	return feerate.NewWithSize(amount.Amount(m.modFeesWithAncestors), m.sizeWithAncestors)
}

// modifiedEntrySort is the btree.Item mapModifiedTx orders its entries
// by (spec.md §9's "modified-entry shadow map ... ordered by modified
// ancestor feerate"). Ascending by feerate, with a hash tiebreak so
// two distinct entries at the same feerate never collide as the same
// tree key; the map's best() reads the tree's Max.
type modifiedEntrySort struct{ *modifiedEntry }

func (a modifiedEntrySort) Less(than btree.Item) bool {
	b := than.(modifiedEntrySort)
	r1, r2 := a.feeRate(), b.feeRate()
	if r1.SatoshisPerK == r2.SatoshisPerK {
		h1, h2 := a.entry.Tx.GetHash(), b.entry.Tx.GetHash()
		return h1.Cmp(&h2) < 0
	}
	return r1.SatoshisPerK < r2.SatoshisPerK
}

// compareModifiedEntry implements CompareModifiedEntry (spec.md §4.5
// step 2): true iff the modified candidate's feerate beats (or ties
// and wins the identity tiebreak over) the mempool-projected one.
func compareModifiedEntry(modified *modifiedEntry, base *mempool.TxEntry) bool {
	r1 := modified.feeRate()
	r2 := feerate.NewWithSize(amount.Amount(base.SumTxFeeWithAncestors), base.SumTxSizeWitAncestors)
	if r1.SatoshisPerK == r2.SatoshisPerK {
		h1, h2 := modified.entry.Tx.GetHash(), base.Tx.GetHash()
		return h1.Cmp(&h2) > 0
	}
	return r1.SatoshisPerK > r2.SatoshisPerK
}
