package mining

import (
	"container/heap"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/copernet/blockassembler/model/mempool"
)

func TestAllowFreeThreshold(t *testing.T) {
	assert.True(t, AllowFree(AllowFreeThreshold+1))
	assert.False(t, AllowFree(AllowFreeThreshold))
	assert.False(t, AllowFree(0))
}

func TestPriorityHeapPopsHighestFirst(t *testing.T) {
	h := &priorityHeap{}
	heap.Init(h)
	low := &priorityItem{entry: &mempool.TxEntry{}, priority: 10}
	high := &priorityItem{entry: &mempool.TxEntry{}, priority: 1000}
	mid := &priorityItem{entry: &mempool.TxEntry{}, priority: 500}

	heap.Push(h, low)
	heap.Push(h, high)
	heap.Push(h, mid)

	assert.Same(t, high, heap.Pop(h).(*priorityItem))
	assert.Same(t, mid, heap.Pop(h).(*priorityItem))
	assert.Same(t, low, heap.Pop(h).(*priorityItem))
}

func TestIsStillDependentBlocksOnUncommittedParent(t *testing.T) {
	pool := mempool.NewTxMempool(1000)
	ba := newTestAssembler(pool, nil)
	ba.resetBlock()

	parent := addEntry(pool, buildTx(1, 1000), 100)
	child := mempool.NewTxentry(buildTx(2, 1000), 100, 0, 1, mempool.LockPoints{}, 0, false)
	child.UpdateParent(parent, true)

	assert.True(t, ba.isStillDependent(child))

	ba.inBlock[parent.Tx.GetHash()] = struct{}{}
	assert.False(t, ba.isStillDependent(child))
}

func TestAddPriorityTxsAdmitsWithinBudget(t *testing.T) {
	pool := mempool.NewTxMempool(1000)
	ba := newTestAssembler(pool, nil)
	ba.resetBlock()
	ba.height = 1
	ba.template = &BlockTemplate{Block: newTestBlock()}

	e := addEntry(pool, buildTx(1, 1000), 0)
	e.PriorityValueSum = AllowFreeThreshold * 10 * int64(e.TxSize)
	e.PriorityHeightSum = 0

	// resetBlock reserves 1000 bytes for the not-yet-built coinbase,
	// so the budget must clear that floor before any candidate fits.
	ba.addPriorityTxs(ba.blockSize+int64(e.TxSize)*2, 0)

	_, in := ba.inBlock[e.Tx.GetHash()]
	assert.True(t, in)
}

func TestAddPriorityTxsSkipsFutureTimestamp(t *testing.T) {
	pool := mempool.NewTxMempool(1000)
	ba := newTestAssembler(pool, nil)
	ba.resetBlock()
	ba.height = 1
	ba.template = &BlockTemplate{Block: newTestBlock()}

	txn := buildTx(1, 1000)
	txn.Time = 1000
	e := mempool.NewTxentry(txn, 0, 0, 1, mempool.LockPoints{}, 0, false)
	e.PriorityValueSum = AllowFreeThreshold * 10 * int64(e.TxSize)
	pool.AddUnchecked(e, nil)

	// budget clears the reserved-coinbase floor so the loop actually
	// reaches the candidate; adjustedTime(500) sits before the tx's
	// own time(1000), so the timestamp check is what excludes it.
	ba.addPriorityTxs(ba.blockSize+int64(e.TxSize)*2, 500)

	_, in := ba.inBlock[e.Tx.GetHash()]
	assert.False(t, in)
}

// TestAddPriorityTxsContinuesPastDependentBelowThreshold guards against
// stopping the priority phase as soon as any popped candidate is under
// AllowFreeThreshold — original_source/src/miner.cpp only checks
// AllowFree after a successful AddToBlock, so a still-dependent (or
// otherwise not-yet-fitting) below-threshold candidate must be parked
// or skipped, not treated as the phase's stopping point.
func TestAddPriorityTxsContinuesPastDependentBelowThreshold(t *testing.T) {
	pool := mempool.NewTxMempool(1000)
	ba := newTestAssembler(pool, nil)
	ba.resetBlock()
	ba.height = 1
	ba.template = &BlockTemplate{Block: newTestBlock()}

	parentTx := buildTx(1, 1000)
	parentTx.Time = 1
	parent := mempool.NewTxentry(parentTx, 100, 0, 1, mempool.LockPoints{}, 0, false)
	pool.AddUnchecked(parent, nil)

	// parent's own time(1) sits after adjustedTime(0), so the timestamp
	// check keeps it out and it is never committed; dependent therefore
	// stays parked in waitPriMap for the whole run. Every entry defaults
	// to priority 0, well below AllowFreeThreshold.
	dependentTx := buildTx(2, 1000)
	dependent := mempool.NewTxentry(dependentTx, 100, 0, 1, mempool.LockPoints{}, 0, false)
	dependent.UpdateParent(parent, true)
	pool.AddUnchecked(dependent, []*mempool.TxEntry{parent})

	admittableTx := buildTx(3, 1000)
	admittable := mempool.NewTxentry(admittableTx, 100, 0, 1, mempool.LockPoints{}, 0, false)
	pool.AddUnchecked(admittable, nil)

	budget := ba.blockSize + int64(dependent.TxSize) + int64(admittable.TxSize) + int64(parent.TxSize)
	ba.addPriorityTxs(budget, 0)

	_, admittableIn := ba.inBlock[admittableTx.GetHash()]
	assert.True(t, admittableIn, "a below-threshold but currently-includable tx must not be discarded just because an earlier-popped below-threshold tx was still dependent")
	_, dependentIn := ba.inBlock[dependentTx.GetHash()]
	assert.False(t, dependentIn, "the dependent tx stays parked since its parent never commits")
}

func TestAddPriorityTxsZeroBudgetNoOp(t *testing.T) {
	pool := mempool.NewTxMempool(1000)
	ba := newTestAssembler(pool, nil)
	ba.resetBlock()
	ba.template = &BlockTemplate{Block: newTestBlock()}
	addEntry(pool, buildTx(1, 1000), 0)

	ba.addPriorityTxs(0, 0)
	assert.Empty(t, ba.inBlock)
}
