package trx

import (
	"github.com/RahulKushwaha/embedded-innodb/btree"
	"github.com/RahulKushwaha/embedded-innodb/errs"
	"github.com/RahulKushwaha/embedded-innodb/mtr"
	"github.com/RahulKushwaha/embedded-innodb/page"
	"github.com/RahulKushwaha/embedded-innodb/undo"
)

// IndexResolver maps an undo record's opaque TableID to the clustered
// index rollback must apply the undo record against. The engine package
// supplies the concrete mapping; trx itself never knows about tables.
type IndexResolver func(tableID uint64) (*btree.Index, bool)

// applyUndo reverses one undo record against the B-tree, grounded on
// row_undo_mod/row_undo_ins of original_source/row/row0undo.cc: an INSERT
// undo record means "this row didn't exist before, delete it"; an
// UPDATE/DELETE-MARK undo record means "restore OldFields and, for a
// delete-mark, unmark the row."
func applyUndo(resolve IndexResolver, rec *undo.Record, m *mtr.Mtr) error {
	ix, ok := resolve(rec.TableID)
	if !ok {
		return errs.New(errs.MissingHistory, "rollback: unknown table id in undo record")
	}
	switch rec.Type {
	case undo.RecInsert:
		return btree.PhysicalDelete(ix, rec.Key, m)
	case undo.RecDeleteMark:
		return btree.ClearDeleteMark(ix, rec.Key, m)
	case undo.RecUpdateExisting, undo.RecUpdateDeleted:
		restored := &page.Record{Fields: rec.OldFields, TrxID: rec.TrxID, RollPtr: rec.PrevVersion}
		return btree.Replace(ix, restored, m)
	default:
		return errs.New(errs.MissingHistory, "rollback: unknown undo record type")
	}
}

// Rollback undoes every change t made, in reverse order, and releases its
// locks. Its undo records are never put on the history list, so purge never
// sees them (an aborted transaction's versions are gone immediately, not
// deferred to purge — spec §4.6).
func (m *Manager) Rollback(t *Transaction, resolve IndexResolver, mtrFor func() *mtr.Mtr) error {
	for i := len(t.undoRecords) - 1; i >= 0; i-- {
		tx := mtrFor()
		if err := applyUndo(resolve, t.undoRecords[i].rec, tx); err != nil {
			tx.Discard()
			return errs.Wrap(errs.MissingHistory, err, "rollback")
		}
		tx.Commit()
	}
	t.undoRecords = nil
	t.Status = Aborted
	m.finish(t)
	return nil
}

// RollbackToSavepoint undoes only the changes made after sp, leaving t
// Active so it can continue (spec's ROLLBACK TO savepoint).
func (m *Manager) RollbackToSavepoint(t *Transaction, sp Savepoint, resolve IndexResolver, mtrFor func() *mtr.Mtr) error {
	entries := t.undoSince(sp)
	for _, e := range entries {
		tx := mtrFor()
		if err := applyUndo(resolve, e.rec, tx); err != nil {
			tx.Discard()
			return errs.Wrap(errs.MissingHistory, err, "rollback to savepoint")
		}
		tx.Commit()
	}
	keep := sp.InsertUndoNo + sp.UpdateUndoNo
	t.undoRecords = t.undoRecords[:keep]
	for i, s := range t.savepoints {
		if s.Name == sp.Name {
			t.savepoints = t.savepoints[:i]
			break
		}
	}
	return nil
}

// Commit finalizes t: every undo record it wrote moves onto its rollback
// segment's history list for purge to eventually reclaim (spec §3/§4.6),
// its locks are released, and it's dropped from the active set so later
// read views no longer treat it as active.
func (m *Manager) Commit(t *Transaction) {
	if t.RSeg != nil {
		for _, e := range t.undoRecords {
			t.RSeg.CommitLog(e.rollPtr)
		}
	}
	t.undoRecords = nil
	t.Status = Committed
	m.finish(t)
}

func (m *Manager) finish(t *Transaction) {
	m.Locks.ReleaseAll(t.ID)
	m.mu.Lock()
	delete(m.active, t.ID)
	m.mu.Unlock()
}

// NextID reports the id that will be assigned to the next Begin call, used
// by purge to build a view over transactions started after the current
// instant (spec §4.6).
func (m *Manager) NextID() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nextID
}

// ActiveIDs returns the ids of every currently active transaction, used to
// build a fresh read view or by recovery to report what it found ACTIVE.
func (m *Manager) ActiveIDs() []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]uint64, 0, len(m.active))
	for id := range m.active {
		ids = append(ids, id)
	}
	return ids
}
