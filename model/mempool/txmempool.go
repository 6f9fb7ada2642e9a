// TxMempool is the assembler's own view onto admitted transactions: a
// txid-keyed store plus a recently-rejected cache. It keeps no ordered
// indices; the selector and priority phases build their own orderings
// from Entries() on each pass. It does not perform consensus
// or policy validation — that is the mempool's admission-time job,
// external to this module (spec.md §7); TxMempool only tracks what is
// already admitted and keeps ancestor/descendant aggregates correct as
// entries are added or removed.
package mempool

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/copernet/blockassembler/util/hash"
)

type TxMempool struct {
	mu sync.RWMutex

	poolData map[hash.Hash]*TxEntry

	// recentlyRejected caches txids the mempool has already refused
	// admission for, so a re-broadcast doesn't re-run full
	// validation — grounded on the teacher's use of
	// hashicorp/golang-lru elsewhere in copernet-copernicus for
	// bounded recency caches.
	recentlyRejected *lru.Cache

	transactionsUpdated uint64
}

func NewTxMempool(rejectCacheSize int) *TxMempool {
	rejected, _ := lru.New(rejectCacheSize)
	return &TxMempool{
		poolData:         make(map[hash.Hash]*TxEntry),
		recentlyRejected: rejected,
	}
}

func (m *TxMempool) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.poolData)
}

func (m *TxMempool) Get(h hash.Hash) (*TxEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.poolData[h]
	return e, ok
}

// AddUnchecked admits an already-validated entry, wiring its
// ParentTx/ChildTx edges against whatever ancestors are already
// present. It does not itself update ancestor aggregates for existing
// descendants of parent — callers that add several linked entries at
// once are expected to call UpdateAncestorState/UpdateChildOfParents
// as the teacher's mempool.addUnchecked does.
func (m *TxMempool) AddUnchecked(e *TxEntry, parents []*TxEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range parents {
		e.UpdateParent(p, true)
	}
	e.UpdateChildOfParents(true)
	m.poolData[e.Tx.GetHash()] = e
	m.transactionsUpdated++
}

// RemoveUnchecked evicts e from the pool and unlinks it from its
// parents' child sets. Descendant aggregates on ancestors are the
// caller's responsibility to adjust (mirrors the teacher's split
// between removeUnchecked and updateAncestorsOf).
func (m *TxMempool) RemoveUnchecked(e *TxEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.UpdateChildOfParents(false)
	delete(m.poolData, e.Tx.GetHash())
	m.transactionsUpdated++
}

// GetMemPoolParents returns e's direct in-pool ancestors.
func (m *TxMempool) GetMemPoolParents(e *TxEntry) []*TxEntry {
	parents := make([]*TxEntry, 0, len(e.ParentTx))
	for p := range e.ParentTx {
		parents = append(parents, p)
	}
	return parents
}

// GetMemPoolChildren returns e's direct in-pool descendants.
func (m *TxMempool) GetMemPoolChildren(e *TxEntry) []*TxEntry {
	children := make([]*TxEntry, 0, len(e.ChildTx))
	for c := range e.ChildTx {
		children = append(children, c)
	}
	return children
}

// CalculateMemPoolAncestors walks e's full ancestor closure — every
// entry reachable by following ParentTx edges — the set the selector
// must have already committed to a template before e itself can be
// selected (spec.md §4.4's dependency rule).
func CalculateMemPoolAncestors(e *TxEntry) map[*TxEntry]struct{} {
	visited := make(map[*TxEntry]struct{})
	var walk func(cur *TxEntry)
	walk = func(cur *TxEntry) {
		for p := range cur.ParentTx {
			if _, seen := visited[p]; seen {
				continue
			}
			visited[p] = struct{}{}
			walk(p)
		}
	}
	walk(e)
	return visited
}

// CalculateDescendants walks e's full descendant closure, including e
// itself. The selector uses it to find the descendants whose modified
// ancestor aggregates change when e is committed.
func CalculateDescendants(e *TxEntry) map[*TxEntry]struct{} {
	visited := map[*TxEntry]struct{}{e: {}}
	var walk func(cur *TxEntry)
	walk = func(cur *TxEntry) {
		for c := range cur.ChildTx {
			if _, seen := visited[c]; seen {
				continue
			}
			visited[c] = struct{}{}
			walk(c)
		}
	}
	walk(e)
	return visited
}

// MarkRejected records txid as recently refused admission.
func (m *TxMempool) MarkRejected(txid hash.Hash) {
	m.recentlyRejected.Add(txid, struct{}{})
}

func (m *TxMempool) WasRecentlyRejected(txid hash.Hash) bool {
	return m.recentlyRejected.Contains(txid)
}

// Entries returns a snapshot slice of every admitted entry, the input
// the Ancestor-Score Selector's package construction phase starts
// from (spec.md §4.4).
func (m *TxMempool) Entries() []*TxEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*TxEntry, 0, len(m.poolData))
	for _, e := range m.poolData {
		out = append(out, e)
	}
	return out
}
