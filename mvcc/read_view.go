// Package mvcc implements the read view (C7): the per-transaction snapshot
// of which other transactions' changes are visible. Grounded on
// mvcc/read_view.go of the teacher (minTrxID/maxTrxID/activeIDs/creatorTrxID
// naming and the visibility algorithm), generalized from its int64 version
// numbers to the engine's uint64 transaction ids, and on
// original_source/trx/trx0sys.cc (the transaction system's active-trx-list
// bookkeeping a read view snapshots) for the exact boundary semantics.
package mvcc

import "sort"

// ReadView is an immutable snapshot taken when a transaction begins under
// REPEATABLE READ (or at the start of every statement under
// READ COMMITTED, spec §4.5).
type ReadView struct {
	creatorTrxID uint64
	minTrxID     uint64 // lowest id among transactions active when the view was taken
	maxTrxID     uint64 // next id the system will assign; anything >= this started after
	activeIDs    []uint64
}

// New builds a read view from the current set of active transaction ids
// (excluding the creator) and the next-to-assign id.
func New(creatorTrxID uint64, activeIDs []uint64, nextTrxID uint64) *ReadView {
	ids := append([]uint64(nil), activeIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	min := nextTrxID
	if len(ids) > 0 {
		min = ids[0]
	}
	return &ReadView{creatorTrxID: creatorTrxID, minTrxID: min, maxTrxID: nextTrxID, activeIDs: ids}
}

// IsVisible reports whether a row version stamped with trxID is visible to
// this read view (spec §4.5's exact rule):
//   - its own writes are always visible
//   - anything committed before the oldest transaction active at snapshot
//     time is visible
//   - anything started at or after the next-to-assign id at snapshot time
//     (i.e. created after the snapshot) is invisible
//   - anything else is visible unless it was one of the active (uncommitted)
//     transactions at snapshot time
func (rv *ReadView) IsVisible(trxID uint64) bool {
	if trxID == rv.creatorTrxID {
		return true
	}
	if trxID >= rv.maxTrxID {
		return false
	}
	if trxID < rv.minTrxID {
		return true
	}
	i := sort.Search(len(rv.activeIDs), func(i int) bool { return rv.activeIDs[i] >= trxID })
	if i < len(rv.activeIDs) && rv.activeIDs[i] == trxID {
		return false
	}
	return true
}

func (rv *ReadView) CreatorTrxID() uint64 { return rv.creatorTrxID }
func (rv *ReadView) MinTrxID() uint64     { return rv.minTrxID }
func (rv *ReadView) MaxTrxID() uint64     { return rv.maxTrxID }
func (rv *ReadView) ActiveIDs() []uint64  { return append([]uint64(nil), rv.activeIDs...) }
