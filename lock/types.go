// Package lock implements the transaction and lock manager's locking half
// (C8): record-level gap/next-key/insert-intention locks, a small set of
// table-level intention locks, a wait-for graph, and bounded-depth deadlock
// detection with victim selection. Grounded on manager/lock_manager.go and
// mvcc/deadlock.go of the teacher (LockType/LockInfo naming, the wait-graph
// DFS), generalized to the record-lock flag vocabulary of
// original_source/lock/lock0lock.cc (LOCK_GAP, LOCK_REC_NOT_GAP,
// LOCK_INSERT_INTENTION) that the teacher's coarser S/X model doesn't have.
package lock

// Mode is the familiar shared/exclusive lock mode.
type Mode int

const (
	ModeS Mode = iota
	ModeX
)

// Flags refine a record lock's scope, mirroring InnoDB's lock0lock.h bits
// (spec §4.6 "gap, next-key, insert-intention, record-not-gap").
type Flags uint8

const (
	// FlagGap means the lock covers the gap before the record, not the
	// record itself. Combined with no other flag it is a pure gap lock;
	// with neither Gap nor RecordNotGap set, it's an ordinary next-key lock
	// (gap + record together, InnoDB's default for a non-unique search).
	FlagGap Flags = 1 << iota
	// FlagRecordNotGap locks only the record, not the preceding gap (set on
	// a unique-index equality match, which needs no gap protection).
	FlagRecordNotGap
	// FlagInsertIntention marks a gap lock taken by an inserter signalling
	// intent to insert into the gap; it does not conflict with other gap
	// locks on the same gap (spec §4.6 edge case), only with an explicit
	// gap lock that itself disallows insertion.
	FlagInsertIntention
)

func (f Flags) isGapOnly() bool    { return f&FlagGap != 0 && f&FlagRecordNotGap == 0 }
func (f Flags) coversRecord() bool { return f&FlagRecordNotGap != 0 || f == 0 }
func (f Flags) coversGap() bool    { return f&FlagGap != 0 || f == 0 }

// Key identifies the lock target: a specific heap number within a page, or
// the page's supremum pseudo-record for an end-of-page gap lock.
type Key struct {
	Space, Page uint32
	Heap        uint16
}

// TableMode is the table-level intention lock vocabulary InnoDB pairs with
// record locks so a table-level X (e.g. DDL, out of scope but the mode
// still exists for completeness) can detect conflicting row locks without
// scanning every row.
type TableMode int

const (
	TableIS TableMode = iota
	TableIX
	TableS
	TableX
)

func tableCompatible(held, want TableMode) bool {
	switch held {
	case TableIS:
		return want != TableX
	case TableIX:
		return want == TableIS || want == TableIX
	case TableS:
		return want == TableIS || want == TableS
	case TableX:
		return false
	}
	return false
}
