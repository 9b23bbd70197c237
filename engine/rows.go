package engine

import (
	"github.com/RahulKushwaha/embedded-innodb/btree"
	"github.com/RahulKushwaha/embedded-innodb/errs"
	"github.com/RahulKushwaha/embedded-innodb/lock"
	"github.com/RahulKushwaha/embedded-innodb/mvcc"
	"github.com/RahulKushwaha/embedded-innodb/page"
	"github.com/RahulKushwaha/embedded-innodb/trx"
	"github.com/RahulKushwaha/embedded-innodb/undo"
)

// InsertRow inserts fields under t, stamping the new clustered record with
// t's id as its version owner (spec §4.5). The insert-type undo record
// carries no OldFields — on rollback, the whole row is simply removed
// (btree.PhysicalDelete), matching row_undo_ins of original_source/row/row0undo.cc.
func (e *Engine) InsertRow(t *trx.Transaction, table *Table, key [][]byte, fields []page.Field) error {
	if err := e.trxMgr.Locks.AcquireRecord(t.ID, lockKeyFor(table.Clustered, key), lock.ModeX, lock.FlagInsertIntention|lock.FlagGap); err != nil {
		return err
	}
	tx := e.newMtr()
	rollPtr, err := e.trxMgr.RecordUndo(t, &undo.Record{
		Type: undo.RecInsert, TrxID: t.ID, TableID: table.ID, Key: key,
	}, tx)
	if err != nil {
		tx.Discard()
		return err
	}
	rec := &page.Record{Type: page.RecordOrdinary, Fields: fields, TrxID: t.ID, RollPtr: rollPtr}
	if err := btree.Insert(table.Clustered, rec, tx); err != nil {
		tx.Discard()
		return err
	}
	for _, sec := range table.Secondaries {
		secRec := &page.Record{Type: page.RecordOrdinary, Fields: fields}
		if err := btree.Insert(sec, secRec, tx); err != nil {
			tx.Discard()
			return err
		}
	}
	tx.Commit()
	return nil
}

// UpdateRow replaces the fields of the clustered record matching key,
// writing an update-type undo record carrying the row's pre-image so
// rollback (or an old read view) can reconstruct it (spec §4.5/§4.6).
func (e *Engine) UpdateRow(t *trx.Transaction, table *Table, key [][]byte, newFields []page.Field) error {
	if err := e.trxMgr.Locks.AcquireRecord(t.ID, lockKeyFor(table.Clustered, key), lock.ModeX, lock.FlagRecordNotGap); err != nil {
		return err
	}
	tx := e.newMtr()
	cur, found, err := btree.Get(table.Clustered, key, tx)
	if err != nil {
		tx.Discard()
		return err
	}
	if !found {
		tx.Discard()
		return errs.New(errs.MissingHistory, "update: row not found")
	}
	rollPtr, err := e.trxMgr.RecordUndo(t, &undo.Record{
		Type: undo.RecUpdateExisting, TrxID: cur.TrxID, TableID: table.ID, Key: key,
		OldFields: cur.Fields, PrevVersion: cur.RollPtr,
	}, tx)
	if err != nil {
		tx.Discard()
		return err
	}
	updated := &page.Record{Type: page.RecordOrdinary, Fields: newFields, TrxID: t.ID, RollPtr: rollPtr}
	if err := btree.Replace(table.Clustered, updated, tx); err != nil {
		tx.Discard()
		return err
	}
	tx.Commit()
	return nil
}

// DeleteRow mark-deletes the clustered record matching key: the row stays
// physically present (and visible to older read views) until purge
// reclaims it (spec §4.4/§4.6 mark-and-sweep).
func (e *Engine) DeleteRow(t *trx.Transaction, table *Table, key [][]byte) error {
	if err := e.trxMgr.Locks.AcquireRecord(t.ID, lockKeyFor(table.Clustered, key), lock.ModeX, lock.FlagRecordNotGap); err != nil {
		return err
	}
	tx := e.newMtr()
	cur, found, err := btree.Get(table.Clustered, key, tx)
	if err != nil {
		tx.Discard()
		return err
	}
	if !found {
		tx.Discard()
		return errs.New(errs.MissingHistory, "delete: row not found")
	}
	rollPtr, err := e.trxMgr.RecordUndo(t, &undo.Record{
		Type: undo.RecDeleteMark, TrxID: cur.TrxID, TableID: table.ID, Key: key,
		OldFields: cur.Fields, PrevVersion: cur.RollPtr,
	}, tx)
	if err != nil {
		tx.Discard()
		return err
	}
	marked := &page.Record{Type: page.RecordOrdinary, Fields: cur.Fields, TrxID: t.ID, RollPtr: rollPtr}
	marked.SetDeleteMarked(true)
	if err := btree.Replace(table.Clustered, marked, tx); err != nil {
		tx.Discard()
		return err
	}
	tx.Commit()
	return nil
}

// ReadRow returns the version of the clustered record matching key visible
// to t's read view (or the fresh per-statement view under READ COMMITTED/
// READ UNCOMMITTED), walking the undo chain via mvcc.VisibleVersion when
// the current on-page version isn't visible (spec §4.5).
func (e *Engine) ReadRow(t *trx.Transaction, table *Table, key [][]byte) ([]page.Field, bool, error) {
	if t.Isolation.PlainReadsTakeLocks() {
		if err := e.trxMgr.Locks.AcquireRecord(t.ID, lockKeyFor(table.Clustered, key), lock.ModeS, lock.FlagRecordNotGap); err != nil {
			return nil, false, err
		}
	}
	tx := e.newMtr()
	cur, found, err := btree.Get(table.Clustered, key, tx)
	tx.Commit()
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	rv := e.trxMgr.StatementReadView(t)
	fields, visible, err := mvcc.VisibleVersion(rv, cur.TrxID, cur.RollPtr, cur.Fields, e.rsegByID, e.pool)
	if err != nil {
		return nil, false, err
	}
	if visible && cur.DeleteMarked() && rv.IsVisible(cur.TrxID) {
		return nil, false, nil
	}
	return fields, visible, nil
}

// lockKeyFor derives a logical row-lock key from the key tuple itself
// rather than the record's physical (page, heap) location, so a lock
// survives the record moving to a different page across a split or merge
// without needing lock.InheritOnSplit on every write path (spec §4.6
// simplification: a real page/heap key would need a full descent before
// the lock could be taken).
func lockKeyFor(ix *btree.Index, key [][]byte) lock.Key {
	return lock.Key{Space: ix.Space, Page: ix.RootPageNo, Heap: keyHash(key)}
}

func keyHash(key [][]byte) uint16 {
	var h uint16 = 2166
	for _, k := range key {
		for _, b := range k {
			h = h*31 + uint16(b)
		}
	}
	return h
}
