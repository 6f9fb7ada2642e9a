package mining

import (
	"sort"

	"github.com/copernet/blockassembler/model/mempool"
	"github.com/copernet/blockassembler/util/amount"
	"github.com/copernet/blockassembler/util/feerate"
	"github.com/copernet/blockassembler/util/hash"
	"github.com/google/btree"
)

// mapModifiedTx tracks entries whose base ancestor aggregates are
// stale because some (not all) of their ancestors have already been
// committed. The tree orders them by modified ancestor feerate for
// best(); byEntry gives O(log n) lookup/erase by entry identity
// without a linear tree scan (spec.md §4.5, §9's "modified-entry
// shadow map").
type mapModifiedTx struct {
	byEntry map[*mempool.TxEntry]*modifiedEntry
	tree    *btree.BTree
}

func newMapModifiedTx() *mapModifiedTx {
	return &mapModifiedTx{
		byEntry: make(map[*mempool.TxEntry]*modifiedEntry),
		tree:    btree.New(32),
	}
}

func (m *mapModifiedTx) get(e *mempool.TxEntry) (*modifiedEntry, bool) {
	me, ok := m.byEntry[e]
	return me, ok
}

func (m *mapModifiedTx) insert(me *modifiedEntry) {
	if old, ok := m.byEntry[me.entry]; ok {
		m.tree.Delete(modifiedEntrySort{old})
	}
	m.byEntry[me.entry] = me
	m.tree.ReplaceOrInsert(modifiedEntrySort{me})
}

// applyAncestor decrements an already-tracked entry's aggregates for a
// newly committed ancestor and repositions it in the tree. google/btree
// navigates purely by Less(), so the existing node must be deleted
// using me's pre-mutation sort key; deleting after mutating (as a
// plain insert-on-top-of-mutate would) searches with the wrong key,
// misses the old node, and leaves a stale duplicate behind — corrupting
// best() for any entry with two or more
// already-committed ancestors (spec.md §4.5 step 10).
func (m *mapModifiedTx) applyAncestor(me *modifiedEntry, ancestor *mempool.TxEntry) {
	if _, ok := m.byEntry[me.entry]; ok {
		m.tree.Delete(modifiedEntrySort{me})
	}
	me.applyAncestor(ancestor)
	m.byEntry[me.entry] = me
	m.tree.ReplaceOrInsert(modifiedEntrySort{me})
}

func (m *mapModifiedTx) erase(e *mempool.TxEntry) {
	if me, ok := m.byEntry[e]; ok {
		m.tree.Delete(modifiedEntrySort{me})
		delete(m.byEntry, e)
	}
}

// best returns the modified entry with the highest modified ancestor
// feerate, or nil if the map is empty.
func (m *mapModifiedTx) best() *modifiedEntry {
	item := m.tree.Max()
	if item == nil {
		return nil
	}
	return item.(modifiedEntrySort).modifiedEntry
}

// ancestorFeeRateIndex is the mempool's secondary ordering: every
// admitted entry sorted by ancestor feerate descending, the cursor
// addPackageTxs walks (spec.md §3's "(ii) ancestor-feerate descending
// (primary selection order)").
func ancestorFeeRateIndex(entries []*mempool.TxEntry) []*mempool.TxEntry {
	sorted := make([]*mempool.TxEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		ri := feerate.NewWithSize(amount.Amount(sorted[i].SumTxFeeWithAncestors), sorted[i].SumTxSizeWitAncestors)
		rj := feerate.NewWithSize(amount.Amount(sorted[j].SumTxFeeWithAncestors), sorted[j].SumTxSizeWitAncestors)
		if ri.SatoshisPerK == rj.SatoshisPerK {
			h1, h2 := sorted[i].Tx.GetHash(), sorted[j].Tx.GetHash()
			return h1.Cmp(&h2) > 0
		}
		return ri.SatoshisPerK > rj.SatoshisPerK
	})
	return sorted
}

// onlyUnconfirmed filters out entries already committed to inBlock.
func (ba *BlockAssembler) onlyUnconfirmed(entries map[*mempool.TxEntry]struct{}) []*mempool.TxEntry {
	result := make([]*mempool.TxEntry, 0, len(entries))
	for e := range entries {
		if _, in := ba.inBlock[e.Tx.GetHash()]; !in {
			result = append(result, e)
		}
	}
	return result
}

// sortForBlock orders a package by ancestor count ascending — a valid
// topological order per Invariant A (spec.md §9's "Topological
// ordering").
func sortForBlock(entries []*mempool.TxEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].SumTxCountWithAncestors < entries[j].SumTxCountWithAncestors
	})
}

// testPackageTransactions validates a whole candidate ancestor set
// together, all-or-nothing (spec.md §4.3).
func (ba *BlockAssembler) testPackageTransactions(entries []*mempool.TxEntry) bool {
	potentialSize := ba.blockSize
	for _, e := range entries {
		if !e.Tx.IsFinal(ba.height, ba.lockTimeCutoff) {
			return false
		}
		if !ba.includeWitness && e.Tx.HasWitness() {
			return false
		}
		if ba.needSizeAccounting {
			potentialSize += int64(e.TxSize)
			if potentialSize >= ba.maxGeneratedBlockSize {
				return false
			}
		}
	}
	return true
}

// updatePackagesForAdded seeds or advances mapModifiedTx for every
// uncommitted descendant of each just-committed entry (spec.md §4.5
// step 10, and step init via UpdatePackagesForAdded(inBlock, ...)).
func (ba *BlockAssembler) updatePackagesForAdded(committed []*mempool.TxEntry, modified *mapModifiedTx) int {
	updated := 0
	for _, a := range committed {
		for d := range mempoolDescendantsExcludingSelf(a) {
			if _, in := ba.inBlock[d.Tx.GetHash()]; in {
				continue
			}
			updated++
			if me, ok := modified.get(d); ok {
				modified.applyAncestor(me, a)
			} else {
				me := newModifiedEntry(d)
				me.applyAncestor(a)
				modified.insert(me)
			}
		}
	}
	return updated
}

func mempoolDescendantsExcludingSelf(e *mempool.TxEntry) map[*mempool.TxEntry]struct{} {
	all := mempool.CalculateDescendants(e)
	delete(all, e)
	return all
}

// addPackageTxs is the Ancestor-Score Selector's main phase (spec.md
// §4.5): it walks the mempool by ancestor feerate, keeping
// mapModifiedTx current as prior packages commit, until the floor
// feerate is reached or the block is finished.
func (ba *BlockAssembler) addPackageTxs() int {
	descendantsUpdated := 0
	modified := newMapModifiedTx()
	failedTx := make(map[hash.Hash]struct{})

	alreadyInBlock := make([]*mempool.TxEntry, 0, len(ba.inBlock))
	for _, e := range ba.pool.Entries() {
		if _, in := ba.inBlock[e.Tx.GetHash()]; in {
			alreadyInBlock = append(alreadyInBlock, e)
		}
	}
	descendantsUpdated += ba.updatePackagesForAdded(alreadyInBlock, modified)

	cursor := ancestorFeeRateIndex(ba.pool.Entries())
	ci := 0

	for {
		if ba.blockFinished {
			break
		}

		// advance the cursor past anything already resolved
		for ci < len(cursor) && ba.skipMapTxEntry(cursor[ci], modified, failedTx) {
			ci++
		}

		var candidate *mempool.TxEntry
		var modifiedCandidate *modifiedEntry
		usingModified := false

		if ci >= len(cursor) {
			modifiedCandidate = modified.best()
			if modifiedCandidate == nil {
				break
			}
			usingModified = true
		} else {
			base := cursor[ci]
			if best := modified.best(); best != nil && compareModifiedEntry(best, base) {
				modifiedCandidate = best
				usingModified = true
			} else {
				candidate = base
				ci++
			}
		}

		var packageSize, packageSigOps int64
		var packageFee int64
		var entry *mempool.TxEntry
		if usingModified {
			entry = modifiedCandidate.entry
			packageSize = modifiedCandidate.sizeWithAncestors
			packageFee = modifiedCandidate.modFeesWithAncestors
			packageSigOps = modifiedCandidate.sigOpCostWithAncestors
		} else {
			entry = candidate
			packageSize = entry.SumTxSizeWitAncestors
			packageFee = entry.SumTxFeeWithAncestors
			packageSigOps = entry.SumTxSigOpCountWithAncestors
		}

		// floor check: every later package can only have a lower
		// or equal ancestor feerate.
		floorFee := ba.blockMinFeeRate.GetFee(packageSize)
		if amount.Amount(packageFee) < floorFee {
			break
		}

		if !ba.TestPackage(packageSize, packageSigOps) {
			if usingModified {
				modified.erase(entry)
				failedTx[entry.Tx.GetHash()] = struct{}{}
			}
			continue
		}

		ancestors := mempool.CalculateMemPoolAncestors(entry)
		ancestors[entry] = struct{}{}
		ancestorsList := ba.onlyUnconfirmed(ancestors)

		if !ba.testPackageTransactions(ancestorsList) {
			if usingModified {
				modified.erase(entry)
				failedTx[entry.Tx.GetHash()] = struct{}{}
			}
			continue
		}

		sortForBlock(ancestorsList)
		for _, a := range ancestorsList {
			ba.AddToBlock(a)
			modified.erase(a)
		}
		descendantsUpdated += ba.updatePackagesForAdded(ancestorsList, modified)
	}
	return descendantsUpdated
}

// skipMapTxEntry reports whether cursor entry e should be skipped:
// already committed, already tracked as a modified entry (its
// aggregates there are more current), or already failed once
// (spec.md §4.5 step 1).
func (ba *BlockAssembler) skipMapTxEntry(e *mempool.TxEntry, modified *mapModifiedTx, failedTx map[hash.Hash]struct{}) bool {
	if _, in := ba.inBlock[e.Tx.GetHash()]; in {
		return true
	}
	if _, in := modified.get(e); in {
		return true
	}
	if _, in := failedTx[e.Tx.GetHash()]; in {
		return true
	}
	return false
}
