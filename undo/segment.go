package undo

import (
	"encoding/binary"
	"sync"

	"github.com/RahulKushwaha/embedded-innodb/buf"
	"github.com/RahulKushwaha/embedded-innodb/errs"
	"github.com/RahulKushwaha/embedded-innodb/fsp"
	"github.com/RahulKushwaha/embedded-innodb/mtr"
)

// pageHeaderSize is the undo page's own tiny header: 4 bytes next-free-offset
// plus 4 bytes record count. Unlike fsp's 38-byte file header this sits on
// top of it, inside the page body.
const pageHeaderSize = 8

// RollbackSegment owns one rollback segment's undo pages and the history
// list of committed transactions' undo logs awaiting purge (spec §4.6
// "Rollback segments" / "purge... round-robin over rollback segments").
//
// Simplification: one undo log occupies exactly one page (no multi-page
// chaining); a transaction whose undo outgrows a page fails with
// OUT_OF_FILE_SPACE rather than continuing onto a new page, unlike real
// InnoDB's chained undo pages.
type RollbackSegment struct {
	mu sync.Mutex

	ID     uint32
	Space  uint32
	spaces *fsp.Manager

	history []uint64 // undo record roll pointers in commit order; purge re-appends entries it cannot purge yet

	open map[uint32]uint64 // pageNo -> owning trx id, for pages allocated but not yet committed to history
}

func NewRollbackSegment(id, space uint32, spaces *fsp.Manager) *RollbackSegment {
	return &RollbackSegment{ID: id, Space: space, spaces: spaces, open: make(map[uint32]uint64)}
}

// AllocateLog formats a fresh undo-log page for trxID, which is about to
// write its first undo record. The page is tracked as open until CommitLog
// moves it onto the history list, so a crash in between leaves it
// discoverable by UncommittedTrxIDs (spec §4.6 recovery).
func (rs *RollbackSegment) AllocateLog(trxID uint64, m *mtr.Mtr) (uint32, error) {
	sp, err := rs.spaces.GetSpace(rs.Space)
	if err != nil {
		return 0, err
	}
	pageNo, err := sp.Extend(1)
	if err != nil {
		return 0, err
	}
	b, err := m.Fetch(rs.Space, pageNo, buf.ModeX)
	if err != nil {
		return 0, err
	}
	binary.BigEndian.PutUint32(b.Data[0:4], pageHeaderSize)
	binary.BigEndian.PutUint32(b.Data[4:8], 0)
	m.LogWrite(b, mtr.RecUndoHdrCreate, nil)

	rs.mu.Lock()
	rs.open[pageNo] = trxID
	rs.mu.Unlock()
	return pageNo, nil
}

// Append writes rec to the undo log page pageNo at its next free offset and
// returns rec's own roll pointer.
func (rs *RollbackSegment) Append(pageNo uint32, rec *Record, m *mtr.Mtr) (uint64, error) {
	b, err := m.Fetch(rs.Space, pageNo, buf.ModeX)
	if err != nil {
		return 0, err
	}
	offset := int(binary.BigEndian.Uint32(b.Data[0:4]))
	encoded := Encode(rec)
	if offset+len(encoded) > len(b.Data) {
		return 0, errs.New(errs.OutOfFileSpace, "undo log page full")
	}
	copy(b.Data[offset:], encoded)
	binary.BigEndian.PutUint32(b.Data[0:4], uint32(offset+len(encoded)))
	n := binary.BigEndian.Uint32(b.Data[4:8])
	binary.BigEndian.PutUint32(b.Data[4:8], n+1)
	m.LogWrite(b, mtr.RecUndoInsert, encoded)
	return Pack(rs.ID, pageNo, uint16(offset)), nil
}

// ReadAt fetches and decodes the undo record addressed by rp.
func (rs *RollbackSegment) ReadAt(rp uint64, pool *buf.Pool) (*Record, error) {
	_, pageNo, offset := Unpack(rp)
	b, err := pool.Get(rs.Space, pageNo, buf.ModeS)
	if err != nil {
		return nil, err
	}
	defer pool.Release(b, buf.ModeS)
	rec, _ := Decode(b.Data[offset:])
	rec.RollPtr = rp
	return rec, nil
}

// CommitLog appends an undo record's roll pointer to the history list,
// where purge will eventually find and reclaim it (spec §4.6).
func (rs *RollbackSegment) CommitLog(headerRollPtr uint64) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.history = append(rs.history, headerRollPtr)
	_, pageNo, _ := Unpack(headerRollPtr)
	delete(rs.open, pageNo)
}

// UncommittedTrxIDs returns the ids of transactions that allocated an undo
// page which never reached CommitLog — i.e. were still ACTIVE or PREPARED
// when the system stopped (spec §4.6 "recovery... reconstruct ACTIVE/
// PREPARED transactions from undo headers").
func (rs *RollbackSegment) UncommittedTrxIDs() []uint64 {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	ids := make([]uint64, 0, len(rs.open))
	for _, trxID := range rs.open {
		ids = append(ids, trxID)
	}
	return ids
}

// PopHistory removes and returns the oldest history entry, or ok=false if
// the history list is empty — purge's per-segment unit of work.
func (rs *RollbackSegment) PopHistory() (rp uint64, ok bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if len(rs.history) == 0 {
		return 0, false
	}
	rp = rs.history[0]
	rs.history = rs.history[1:]
	return rp, true
}

// HistoryLen reports the pending-purge depth, used for the purge batch
// pacing heuristic (spec §4.6).
func (rs *RollbackSegment) HistoryLen() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.history)
}
