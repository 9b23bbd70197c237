// Package purge implements the background purge system (C9): the global
// purge view below which no read view can still need an old row version,
// round-robin walk of each rollback segment's history list, and physical
// removal of delete-marked rows once nothing needs them any longer.
// Grounded on the teacher's absence of a purge subsystem — no package in
// the teacher models InnoDB purge — so this package follows
// original_source/include/trx0purge.h directly for the history-list walk
// and global-purge-view shape, written in the idiom the rest of this
// module already established (mtr-scoped mutations, errs.Code returns).
package purge

import (
	"bytes"
	"sync"

	"github.com/RahulKushwaha/embedded-innodb/btree"
	"github.com/RahulKushwaha/embedded-innodb/config"
	"github.com/RahulKushwaha/embedded-innodb/errs"
	"github.com/RahulKushwaha/embedded-innodb/logging"
	"github.com/RahulKushwaha/embedded-innodb/mtr"
	"github.com/RahulKushwaha/embedded-innodb/undo"
	"github.com/pierrec/lz4/v4"
)

// View is the global purge view: the lowest transaction id any currently
// active read view might still need to see. A history entry whose row's
// prior-owner TrxID is below this can be reclaimed (spec §4.6 "purge...
// below which no read view can still need the old version").
type View struct {
	mu          sync.RWMutex
	lowLimitID  uint64
}

func NewView() *View { return &View{} }

// Refresh recomputes the view from the current set of active transaction
// ids (the minimum of all of them, or nextTrxID if none are active),
// mirroring trx_purge_sys's view update at the start of each purge batch.
func (v *View) Refresh(activeIDs []uint64, nextTrxID uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lowLimitID = nextTrxID
	for _, id := range activeIDs {
		if id < v.lowLimitID {
			v.lowLimitID = id
		}
	}
}

// CanPurge reports whether a row version owned by trxID is old enough that
// no active read view can still need it.
func (v *View) CanPurge(trxID uint64) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return trxID < v.lowLimitID
}

// IndexResolver maps an undo record's TableID to the clustered and
// secondary indexes purge must remove stale entries from.
type IndexResolver func(tableID uint64) (clustered *btree.Index, secondaries []*btree.Index, ok bool)

// System runs purge batches across a fixed set of rollback segments,
// grounded on trx_purge_sys's round-robin rseg walk.
type System struct {
	cfg      *config.Config
	view     *View
	rsegs    []*undo.RollbackSegment
	resolve  IndexResolver
	mtrFor   func() *mtr.Mtr
	nextRseg int

	dumpBuf bytes.Buffer
}

func NewSystem(cfg *config.Config, view *View, rsegs []*undo.RollbackSegment, resolve IndexResolver, mtrFor func() *mtr.Mtr) *System {
	return &System{cfg: cfg, view: view, rsegs: rsegs, resolve: resolve, mtrFor: mtrFor}
}

// RunBatch processes up to cfg.PurgeBatchSize history-list entries across
// all rollback segments round-robin, returning how many it reclaimed.
// Entries whose owner is still visible to some active read view are
// skipped and left on the history list for the next batch (spec §4.6 edge
// case: purge must never race ahead of the oldest active read view).
func (s *System) RunBatch() (int, error) {
	if len(s.rsegs) == 0 {
		return 0, nil
	}
	reclaimed := 0
	var dumped []*undo.Record
	for i := 0; i < s.cfg.PurgeBatchSize; i++ {
		rs := s.rsegs[s.nextRseg]
		s.nextRseg = (s.nextRseg + 1) % len(s.rsegs)

		rollPtr, ok := rs.PopHistory()
		if !ok {
			continue
		}
		tx := s.mtrFor()
		done, rec, err := s.purgeOne(rs, rollPtr, tx)
		if err != nil {
			tx.Discard()
			return reclaimed, errs.Wrap(errs.MissingHistory, err, "purge batch")
		}
		tx.Commit()
		if !done {
			rs.CommitLog(rollPtr) // not yet purgeable: back onto the history list for a later batch
			continue
		}
		reclaimed++
		dumped = append(dumped, rec)
	}
	if len(dumped) > 0 {
		s.appendDump(dumped)
	}
	return reclaimed, nil
}

// purgeOne applies one history-list entry: if its prior row version is no
// longer visible to any read view, it physically deletes the clustered row
// (via btree.PhysicalDelete) and any stale secondary-index entries sharing
// its key, then reports the record for diagnostic dumping.
func (s *System) purgeOne(rs *undo.RollbackSegment, rollPtr uint64, tx *mtr.Mtr) (bool, *undo.Record, error) {
	rec, err := rs.ReadAt(rollPtr, tx.Pool())
	if err != nil {
		return false, nil, err
	}
	if !s.view.CanPurge(rec.TrxID) {
		return false, nil, nil
	}
	clustered, secondaries, ok := s.resolve(rec.TableID)
	if !ok {
		logging.For(logging.SysPurge).WithField("table_id", rec.TableID).Warn("purge: unknown table id, dropping history entry")
		return true, rec, nil
	}
	if rec.Type == undo.RecDeleteMark {
		if err := btree.PhysicalDelete(clustered, rec.Key, tx); err != nil && errs.Of(err) != errs.MissingHistory {
			return false, nil, err
		}
		for _, sec := range secondaries {
			if err := btree.PhysicalDelete(sec, rec.Key, tx); err != nil && errs.Of(err) != errs.MissingHistory {
				return false, nil, err
			}
		}
	}
	return true, rec, nil
}

// appendDump lz4-compresses the batch of reclaimed undo records and
// appends them to an in-memory diagnostic buffer tooling can inspect to
// audit what a purge cycle removed (spec's domain-stack wiring of
// pierrec/lz4 for a purge diagnostic dump, distinct from on-page
// compression).
func (s *System) appendDump(recs []*undo.Record) {
	var raw bytes.Buffer
	for _, r := range recs {
		raw.Write(undo.Encode(r))
	}
	w := lz4.NewWriter(&s.dumpBuf)
	if _, err := w.Write(raw.Bytes()); err != nil {
		logging.For(logging.SysPurge).WithError(err).Warn("purge: dump compression failed")
		return
	}
	if err := w.Close(); err != nil {
		logging.For(logging.SysPurge).WithError(err).Warn("purge: dump compression close failed")
	}
}

// DumpBytes returns the accumulated lz4-compressed diagnostic dump.
func (s *System) DumpBytes() []byte { return s.dumpBuf.Bytes() }
