// Package undo implements rollback segments and undo log records (C6): the
// per-row version chain MVCC and rollback walk backward through, and the
// roll pointer that addresses one record inside it. Grounded on
// manager/undo_log_manager.go of the teacher and on
// original_source/trx/trx0undo.cc, original_source/trx/trx0rec.cc for the
// record layout and roll-pointer packing the distilled spec leaves open.
package undo

import (
	"encoding/binary"

	"github.com/RahulKushwaha/embedded-innodb/page"
)

// RecType mirrors InnoDB's trx0undo.h undo record type codes.
type RecType byte

const (
	RecInsert         RecType = 11 // TRX_UNDO_INSERT_REC
	RecUpdateExisting RecType = 12 // TRX_UNDO_UPD_EXIST_REC
	RecUpdateDeleted  RecType = 13 // TRX_UNDO_UPD_DEL_REC
	RecDeleteMark     RecType = 14 // TRX_UNDO_DEL_MARK_REC
)

// Record is one undo record: enough to undo one row mutation and, chained
// through PrevVersion, to reconstruct any earlier version of the row a
// still-active read view might need (spec §3 "undo log" / §4.5 MVCC).
type Record struct {
	Type RecType
	// TrxID is the id of the transaction that owned the row version this
	// record restores — i.e. the *prior* version's owner, not the
	// transaction currently writing the undo record. A reader who finds the
	// current row's trx id invisible follows roll_ptr here and then asks
	// whether THIS TrxID is visible, walking PrevVersion until it finds a
	// visible owner or runs off the start of the chain (spec §4.5).
	TrxID   uint64
	TableID uint64 // opaque caller-assigned identifier, core never interprets it
	Key     [][]byte
	// OldFields holds the pre-image of fields an UPDATE changed, or the
	// whole row for a DELETE-mark undo record; nil for a pure INSERT undo
	// record, which only needs Key to know what to remove on rollback.
	OldFields []page.Field
	// PrevVersion is the roll pointer of the row's next-older version, or 0
	// if this is the row's first version (spec §3 GLOSSARY "roll pointer").
	PrevVersion uint64
	// RollPtr is this record's own address, filled in by the rollback
	// segment once the record has been written.
	RollPtr uint64
}

// Encode serializes r without its RollPtr (which is a property of where it
// was written, not of its content).
func Encode(r *Record) []byte {
	buf := make([]byte, 0, 64)
	buf = append(buf, byte(r.Type))
	buf = appendU64(buf, r.TrxID)
	buf = appendU64(buf, r.TableID)
	buf = appendU64(buf, r.PrevVersion)
	buf = appendU16(buf, uint16(len(r.Key)))
	for _, k := range r.Key {
		buf = appendU16(buf, uint16(len(k)))
		buf = append(buf, k...)
	}
	buf = appendU16(buf, uint16(len(r.OldFields)))
	for _, f := range r.OldFields {
		buf = appendU16(buf, uint16(len(f.Data)))
		buf = append(buf, f.Data...)
	}
	return buf
}

// Decode parses one record starting at buf[0], returning it and the number
// of bytes consumed.
func Decode(buf []byte) (*Record, int) {
	r := &Record{Type: RecType(buf[0])}
	off := 1
	r.TrxID, off = readU64(buf, off)
	r.TableID, off = readU64(buf, off)
	r.PrevVersion, off = readU64(buf, off)
	nk, o := readU16(buf, off)
	off = o
	r.Key = make([][]byte, nk)
	for i := range r.Key {
		l, o := readU16(buf, off)
		off = o
		r.Key[i] = append([]byte(nil), buf[off:off+int(l)]...)
		off += int(l)
	}
	nf, o := readU16(buf, off)
	off = o
	r.OldFields = make([]page.Field, nf)
	for i := range r.OldFields {
		l, o := readU16(buf, off)
		off = o
		data := append([]byte(nil), buf[off:off+int(l)]...)
		off += int(l)
		r.OldFields[i] = page.Field{Data: data}
	}
	return r, off
}

func appendU64(buf []byte, v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return append(buf, b...)
}
func appendU16(buf []byte, v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return append(buf, b...)
}
func readU64(buf []byte, off int) (uint64, int) {
	return binary.BigEndian.Uint64(buf[off:]), off + 8
}
func readU16(buf []byte, off int) (uint16, int) {
	return binary.BigEndian.Uint16(buf[off:]), off + 2
}
