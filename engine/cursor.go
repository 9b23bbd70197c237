package engine

import (
	"github.com/RahulKushwaha/embedded-innodb/btree"
	"github.com/RahulKushwaha/embedded-innodb/buf"
	"github.com/RahulKushwaha/embedded-innodb/mtr"
	"github.com/RahulKushwaha/embedded-innodb/mvcc"
	"github.com/RahulKushwaha/embedded-innodb/page"
	"github.com/RahulKushwaha/embedded-innodb/trx"
)

// RowCursor is a forward scan over a table's clustered index, filtering
// each physical record through t's read view before handing it to the
// caller (spec §6 cursor positioning / set_cursor_lock_mode).
//
// Simplification: the cursor holds one mtr open for its whole lifetime
// rather than committing and restarting per step with a persistent cursor
// Store/Restore cycle (spec §4.4's pcur pattern); a long-lived scan this
// way holds S-latches on its trailing pages until Close, which a real
// engine would avoid by checkpointing with btree.PersistentCursor instead.
type RowCursor struct {
	e     *Engine
	t     *trx.Transaction
	table *Table
	mtr   *mtr.Mtr
	cur   *btree.Cursor
	done  bool
}

// OpenCursor positions a RowCursor at the first record whose key is >= key
// (or the very first record if key is nil).
func (e *Engine) OpenCursor(t *trx.Transaction, table *Table, key [][]byte) (*RowCursor, error) {
	tx := e.newMtr()
	if key == nil {
		key = [][]byte{}
	}
	c, err := btree.Search(table.Clustered, key, page.ModeGE, buf.ModeS, tx)
	if err != nil {
		tx.Discard()
		return nil, err
	}
	return &RowCursor{e: e, t: t, table: table, mtr: tx, cur: c}, nil
}

// Next advances the cursor and returns the next visible row, skipping
// physical versions not visible to the cursor's read view (spec §4.5).
func (rc *RowCursor) Next() ([]page.Field, bool, error) {
	for {
		if rc.done {
			return nil, false, nil
		}
		if rc.cur.Pos < 0 || rc.cur.Pos >= len(rc.cur.Page.Records) {
			next, advanced, err := btree.MoveToNextRec(rc.table.Clustered, rc.cur)
			if err != nil {
				return nil, false, err
			}
			rc.cur = next
			if !advanced {
				rc.done = true
				return nil, false, nil
			}
			continue
		}
		rec := rc.cur.Page.Records[rc.cur.Pos]

		next, advanced, err := btree.MoveToNextRec(rc.table.Clustered, rc.cur)
		if err != nil {
			return nil, false, err
		}
		rc.cur = next
		if !advanced {
			rc.done = true
		}

		rv := rc.e.trxMgr.StatementReadView(rc.t)
		fields, visible, err := mvcc.VisibleVersion(rv, rec.TrxID, rec.RollPtr, rec.Fields, rc.e.rsegByID, rc.e.pool)
		if err != nil {
			return nil, false, err
		}
		if !visible {
			continue
		}
		if rec.DeleteMarked() && rv.IsVisible(rec.TrxID) {
			continue
		}
		return fields, true, nil
	}
}

// Close releases the cursor's underlying mtr latches.
func (rc *RowCursor) Close() {
	rc.mtr.Commit()
}
