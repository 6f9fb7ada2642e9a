package mining

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/copernet/blockassembler/model/mempool"
)

func TestSortForBlockIsTopological(t *testing.T) {
	parent := &mempool.TxEntry{}
	parent.SumTxCountWithAncestors = 1
	child := &mempool.TxEntry{}
	child.SumTxCountWithAncestors = 2
	grandchild := &mempool.TxEntry{}
	grandchild.SumTxCountWithAncestors = 3

	entries := []*mempool.TxEntry{grandchild, parent, child}
	sortForBlock(entries)

	assert.Same(t, parent, entries[0])
	assert.Same(t, child, entries[1])
	assert.Same(t, grandchild, entries[2])
}

func TestAncestorFeeRateIndexOrdersDescending(t *testing.T) {
	pool := mempool.NewTxMempool(1000)
	cheap := addEntry(pool, buildTx(1, 1000), 100)
	rich := addEntry(pool, buildTx(2, 1000), 10000)

	sorted := ancestorFeeRateIndex(pool.Entries())
	assert.Same(t, rich, sorted[0])
	assert.Same(t, cheap, sorted[1])
}

func TestMapModifiedTxBestTracksAncestorFeerate(t *testing.T) {
	pool := mempool.NewTxMempool(1000)
	low := addEntry(pool, buildTx(1, 1000), 100)
	high := addEntry(pool, buildTx(2, 1000), 5000)

	m := newMapModifiedTx()
	m.insert(newModifiedEntry(low))
	m.insert(newModifiedEntry(high))

	best := m.best()
	assert.Same(t, high, best.entry)

	m.erase(high)
	best = m.best()
	assert.Same(t, low, best.entry)
}

func TestApplyAncestorInvariantB(t *testing.T) {
	ancestor := addEntry(mempool.NewTxMempool(1000), buildTx(1, 1000), 500)
	descendant := &mempool.TxEntry{}
	descendant.SumTxFeeWithAncestors = 1500
	descendant.SumTxSizeWitAncestors = 400
	descendant.SumTxSigOpCountWithAncestors = 3

	me := newModifiedEntry(descendant)
	me.applyAncestor(ancestor)

	assert.Equal(t, descendant.SumTxFeeWithAncestors-ancestor.TxFee, me.modFeesWithAncestors)
	assert.Equal(t, descendant.SumTxSizeWitAncestors-int64(ancestor.TxSize), me.sizeWithAncestors)
}

// TestUpdatePackagesForAddedAppliesMultipleAncestorsToSameDescendant
// guards the fix for a bug where decrementing an already-tracked
// modifiedEntry's aggregates a second time (spec.md §4.5 step 10, a
// descendant with ≥2 already-committed ancestors) would leave a stale,
// undeletable duplicate node in the tree: google/btree finds nodes by
// Less(), so deleting the old node with the entry's post-mutation key
// (instead of its pre-mutation key) misses, and ReplaceOrInsert adds a
// second node instead of repositioning the first.
func TestUpdatePackagesForAddedAppliesMultipleAncestorsToSameDescendant(t *testing.T) {
	pool := mempool.NewTxMempool(1000)
	ba := newTestAssembler(pool, nil)
	ba.resetBlock()

	grandparent := addEntry(pool, buildTx(1, 1000), 100)
	parent := addEntry(pool, buildTx(2, 1000), 300)
	descendant := addEntry(pool, buildTx(3, 1000), 500)
	descendant.SumTxFeeWithAncestors = 900
	descendant.SumTxSizeWitAncestors = 900
	descendant.SumTxSigOpCountWithAncestors = 9
	grandparent.ChildTx = map[*mempool.TxEntry]struct{}{descendant: {}}
	parent.ChildTx = map[*mempool.TxEntry]struct{}{descendant: {}}

	modified := newMapModifiedTx()
	ba.updatePackagesForAdded([]*mempool.TxEntry{grandparent, parent}, modified)

	me, ok := modified.get(descendant)
	assert.True(t, ok)
	wantFees := descendant.SumTxFeeWithAncestors - grandparent.TxFee - parent.TxFee
	wantSize := descendant.SumTxSizeWitAncestors - int64(grandparent.TxSize) - int64(parent.TxSize)
	assert.Equal(t, wantFees, me.modFeesWithAncestors)
	assert.Equal(t, wantSize, me.sizeWithAncestors)

	// exactly one node for descendant must be in the tree, keyed at its
	// final (twice-decremented) feerate.
	best := modified.best()
	assert.Same(t, descendant, best.entry)
	assert.Equal(t, me.modFeesWithAncestors, best.modFeesWithAncestors)

	modified.erase(descendant)
	assert.Nil(t, modified.best(), "erase must remove the only remaining node, not miss a stale duplicate")
}

func TestAddPackageTxsRespectsFloorFeeRate(t *testing.T) {
	pool := mempool.NewTxMempool(1000)
	cfg := testConfig()
	cfg.Mining.BlockMinTxFee = 100000 // far above what buildTx's fees can clear
	ba := NewBlockAssembler(cfg, pool, &fakeChain{}, fakeCoins{}, fakeDifficulty{bits: 0x207fffff})
	ba.resetBlock()
	ba.template = &BlockTemplate{Block: newTestBlock()}

	addEntry(pool, buildTx(1, 1000), 10)

	ba.addPackageTxs()
	assert.Empty(t, ba.inBlock, "no package can clear an unreachable floor feerate")
}

func TestAddPackageTxsAdmitsProfitablePackage(t *testing.T) {
	pool := mempool.NewTxMempool(1000)
	ba := newTestAssembler(pool, nil)
	ba.resetBlock()
	ba.template = &BlockTemplate{Block: newTestBlock()}

	e := addEntry(pool, buildTx(1, 1000), 100000)

	ba.addPackageTxs()
	_, in := ba.inBlock[e.Tx.GetHash()]
	assert.True(t, in)
}

func TestAddPackageTxsPreservesAncestorOrder(t *testing.T) {
	pool := mempool.NewTxMempool(1000)
	ba := newTestAssembler(pool, nil)
	ba.resetBlock()
	ba.template = &BlockTemplate{Block: newTestBlock()}

	parentTx := buildTx(1, 5000)
	parent := mempool.NewTxentry(parentTx, 50000, 0, 1, mempool.LockPoints{}, 0, false)
	pool.AddUnchecked(parent, nil)

	childTx := buildTx(2, 3000)
	child := mempool.NewTxentry(childTx, 50000, 0, 1, mempool.LockPoints{}, 0, false)
	pool.AddUnchecked(child, []*mempool.TxEntry{parent})
	child.UpdateAncestorState(1, parent.TxSize, 0, parent.TxFee)

	ba.addPackageTxs()

	assert.Len(t, ba.template.Block.Txs, 2)
	assert.Same(t, parentTx, ba.template.Block.Txs[0])
	assert.Same(t, childTx, ba.template.Block.Txs[1])
}
