package mvcc

import (
	"github.com/RahulKushwaha/embedded-innodb/buf"
	"github.com/RahulKushwaha/embedded-innodb/errs"
	"github.com/RahulKushwaha/embedded-innodb/page"
	"github.com/RahulKushwaha/embedded-innodb/undo"
)

// VisibleVersion walks a clustered record's version chain until it finds one
// whose owning transaction is visible under rv, or runs off the start of
// the chain (meaning the row did not exist yet as of rv) (spec §4.5
// "MVCC... walks the undo chain to reconstruct the visible version").
//
// currentTrxID/currentRollPtr/currentFields describe the row as the B-tree
// currently holds it. Each step of the chain may have been written by a
// different transaction's rollback segment (a roll pointer packs its own
// rseg id, spec GLOSSARY "roll pointer"), so resolveRseg is consulted fresh
// at every step rather than assuming one fixed segment for the whole walk.
func VisibleVersion(rv *ReadView, currentTrxID uint64, currentRollPtr uint64, currentFields []page.Field, resolveRseg func(rsegID uint32) (*undo.RollbackSegment, bool), pool *buf.Pool) ([]page.Field, bool, error) {
	if rv.IsVisible(currentTrxID) {
		return currentFields, true, nil
	}
	rollPtr := currentRollPtr
	for rollPtr != 0 {
		rsegID, _, _ := undo.Unpack(rollPtr)
		rs, ok := resolveRseg(rsegID)
		if !ok {
			return nil, false, errs.New(errs.MissingHistory, "visibility walk: unknown rollback segment id in roll pointer")
		}
		rec, err := rs.ReadAt(rollPtr, pool)
		if err != nil {
			return nil, false, err
		}
		if rec.Type == undo.RecInsert {
			// The row did not exist before the transaction that wrote this
			// undo record inserted it, and that transaction isn't visible.
			return nil, false, nil
		}
		if rv.IsVisible(rec.TrxID) {
			return rec.OldFields, true, nil
		}
		rollPtr = rec.PrevVersion
	}
	return nil, false, nil
}
