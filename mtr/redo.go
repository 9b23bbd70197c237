// Package mtr implements the mini-transaction and the redo log (C3): mtr
// groups page mutations into an atomic, logged unit; LogSys is the
// in-memory log buffer plus the on-disk ring of redo files. Grounded on
// storage/store/logs/redo_log_type.go and manager/redo_log_manager.go of
// the teacher, and on original_source/mtr/mtr0log.cc and
// original_source/dyn/dyn0dyn.cc for the record framing.
package mtr

// RecType is a redo record's type code. The numeric values match the
// teacher's storage/store/logs/redo_log_type.go (itself lifted from
// InnoDB's mlog0types), so anyone who has read InnoDB recognizes them.
type RecType byte

const (
	RecRecInsert           RecType = 9
	RecRecClustDeleteMark  RecType = 10
	RecRecSecDeleteMark    RecType = 11
	RecRecUpdateInPlace    RecType = 13
	RecRecDelete           RecType = 14
	RecPageReorganize      RecType = 18
	RecPageCreate          RecType = 19
	RecUndoInsert          RecType = 20
	RecUndoErase           RecType = 21
	RecUndoInit            RecType = 22
	RecUndoHdrCreate       RecType = 25
	RecWriteString         RecType = 30
	RecMultiRecEnd         RecType = 31
	RecFileCreate          RecType = 33
)

// SingleRecFlag, ORed into the type byte, marks an mtr that logged exactly
// one record for one page — recovery can apply it without buffering a
// group (spec §4.2).
const SingleRecFlag RecType = 128

// Record is one parsed redo log record: spec §3's "typed, self-describing
// mutation": a type code, target (space,page), and a type-specific payload.
type Record struct {
	Type    RecType
	Space   uint32
	Page    uint32
	Payload []byte
}

// putCompressed / getCompressed implement InnoDB-style variable-length
// unsigned integers (mach_write_compressed): 1-5 bytes, big-endian, with
// the top bits of the first byte selecting the encoded width.
func putCompressed(buf []byte, v uint32) []byte {
	switch {
	case v < 0x80:
		return append(buf, byte(v))
	case v < 0x4000:
		return append(buf, byte(v>>8)|0x80, byte(v))
	case v < 0x200000:
		return append(buf, byte(v>>16)|0xC0, byte(v>>8), byte(v))
	case v < 0x10000000:
		return append(buf, byte(v>>24)|0xE0, byte(v>>16), byte(v>>8), byte(v))
	default:
		return append(buf, 0xF0, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	}
}

func getCompressed(buf []byte) (uint32, int) {
	if len(buf) == 0 {
		return 0, 0
	}
	b0 := buf[0]
	switch {
	case b0 < 0x80:
		return uint32(b0), 1
	case b0 < 0xC0:
		return uint32(b0&0x3F)<<8 | uint32(buf[1]), 2
	case b0 < 0xE0:
		return uint32(b0&0x1F)<<16 | uint32(buf[1])<<8 | uint32(buf[2]), 3
	case b0 < 0xF0:
		return uint32(b0&0x0F)<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3]), 4
	default:
		return uint32(buf[1])<<24 | uint32(buf[2])<<16 | uint32(buf[3])<<8 | uint32(buf[4]), 5
	}
}

// DecodeRecord parses one record from buf, returning it and the number of
// bytes consumed.
func DecodeRecord(buf []byte) (Record, int, bool) {
	if len(buf) < 1 {
		return Record{}, 0, false
	}
	typ := RecType(buf[0] &^ byte(SingleRecFlag))
	off := 1
	space, n := getCompressed(buf[off:])
	if n == 0 {
		return Record{}, 0, false
	}
	off += n
	page, n := getCompressed(buf[off:])
	if n == 0 {
		return Record{}, 0, false
	}
	off += n
	// payload length is embedded by EncodeRecordFramed as a 2-byte
	// prefix, keeping the generic decoder type-agnostic.
	if len(buf) < off+2 {
		return Record{}, 0, false
	}
	plen := int(buf[off])<<8 | int(buf[off+1])
	off += 2
	if len(buf) < off+plen {
		return Record{}, 0, false
	}
	payload := buf[off : off+plen]
	off += plen
	return Record{Type: typ, Space: space, Page: page, Payload: payload}, off, true
}

// EncodeRecordFramed encodes a redo record with a 2-byte payload-length prefix so
// DecodeRecord can resynchronize without type-specific knowledge.
func EncodeRecordFramed(typ RecType, space, page uint32, payload []byte) []byte {
	head := make([]byte, 0, 1+10)
	head = append(head, byte(typ))
	head = putCompressed(head, space)
	head = putCompressed(head, page)
	head = append(head, byte(len(payload)>>8), byte(len(payload)))
	return append(head, payload...)
}
