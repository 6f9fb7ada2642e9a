package mining

import (
	"container/heap"

	"github.com/copernet/blockassembler/model/mempool"
)

// AllowFreeThreshold is the priority floor below which the priority
// reservation phase stops admitting transactions regardless of
// remaining budget (spec.md §4.4 step 5b) — mirrors Bitcoin Core's
// COIN * 144 / 250 "free transaction" priority constant.
const AllowFreeThreshold = 100000000 * 144 / 250

// AllowFree reports whether priority clears the free-transaction
// threshold.
func AllowFree(priority float64) bool {
	return priority > AllowFreeThreshold
}

// priorityItem is one entry parked on the priority heap, carrying the
// priority it was seeded (or re-seeded) with.
type priorityItem struct {
	entry    *mempool.TxEntry
	priority float64
}

type priorityHeap []*priorityItem

func (h priorityHeap) Len() int            { return len(h) }
func (h priorityHeap) Less(i, j int) bool  { return h[i].priority > h[j].priority }
func (h priorityHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *priorityHeap) Push(x interface{}) { *h = append(*h, x.(*priorityItem)) }
func (h *priorityHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// isStillDependent reports whether e has a parent not yet committed —
// candidates are parked in waitPriMap until every parent lands
// (spec.md §4.4 step 3, the "parents before children" fairness rule).
func (ba *BlockAssembler) isStillDependent(e *mempool.TxEntry) bool {
	for p := range e.ParentTx {
		if _, in := ba.inBlock[p.Tx.GetHash()]; !in {
			return true
		}
	}
	return false
}

// addPriorityTxs runs the Priority Reservation prefix phase (spec.md
// §4.4). blockPrioritySize is the byte budget P; adjustedTime is the
// ceiling a candidate's own timestamp must not exceed. CreateNewBlock
// passes its TimeSource's adjusted time here in both PoW and PoS mode;
// there is no separate PoS block-time ceiling.
func (ba *BlockAssembler) addPriorityTxs(blockPrioritySize int64, adjustedTime int64) {
	if blockPrioritySize <= 0 {
		return
	}
	if blockPrioritySize > ba.maxGeneratedBlockSize {
		blockPrioritySize = ba.maxGeneratedBlockSize
	}

	priorSizeAccounting := ba.needSizeAccounting
	ba.needSizeAccounting = true
	defer func() { ba.needSizeAccounting = priorSizeAccounting }()

	h := &priorityHeap{}
	heap.Init(h)
	for _, e := range ba.pool.Entries() {
		heap.Push(h, &priorityItem{entry: e, priority: e.GetPriority(ba.height)})
	}

	waitPriMap := make(map[*mempool.TxEntry]float64)

	for h.Len() > 0 {
		if ba.blockSize >= blockPrioritySize || ba.blockFinished {
			break
		}
		item := heap.Pop(h).(*priorityItem)
		e := item.entry

		if _, in := ba.inBlock[e.Tx.GetHash()]; in {
			continue
		}
		if !ba.includeWitness && e.Tx.HasWitness() {
			continue
		}
		if e.Tx.Time > adjustedTime {
			continue
		}

		if ba.isStillDependent(e) {
			waitPriMap[e] = item.priority
			continue
		}

		if !ba.TestForBlock(e) {
			continue
		}
		ba.AddToBlock(e)

		for c := range e.ChildTx {
			if pri, waiting := waitPriMap[c]; waiting {
				delete(waitPriMap, c)
				heap.Push(h, &priorityItem{entry: c, priority: pri})
			}
		}

		// original_source/src/miner.cpp:555-604 only checks AllowFree
		// after a transaction is actually admitted: still-dependent or
		// not-yet-fitting candidates keep getting parked/skipped
		// regardless of their own priority, and the phase only stops
		// once a below-threshold candidate is admitted.
		if !AllowFree(item.priority) {
			break
		}
	}
}
