// Package page implements the in-page record directory and record manager
// (C4): record header encoding, the sorted singly-linked record chain
// within a page, the page directory of owner slots, and the compact record
// codec. Grounded on basic/page.go, basic/page_header.go, basic/page_types.go,
// record/record.go and record/unified_record.go of the teacher, and on
// original_source/rem/rem0rec.cc for the record-header bit layout.
//
// The core never branches on column type (spec §9): a Record's Fields are
// opaque byte strings, and ordering is delegated to a caller-supplied
// Comparator carried on the index, never hard-coded here.
package page

// RecordType classifies a record's role in the page's record chain.
type RecordType uint8

const (
	RecordOrdinary RecordType = iota
	RecordNodePointer
	RecordInfimum
	RecordSupremum
)

// InfoBits are the record header's info-bit flags.
type InfoBits uint8

const (
	InfoDeleteMarked InfoBits = 1 << iota
	InfoMinRec                // predefined minimum record marker
)

// ExternalRef is the 20-byte out-of-line field reference spec §4.5/§9
// requires once a record's on-page size would exceed free_space_of_empty/2.
type ExternalRef struct {
	Space    uint32
	Page     uint32
	Offset   uint32
	Length   uint32
	PrevPage uint32 // BLOB page chain back-link, 0 if this is the first page
}

const ExternalRefSize = 20

// Field is one record field. If External is non-nil, Data holds only the
// externally-stored field's comparison prefix (per §4.5/§9) and the real
// payload lives in the BLOB page chain referenced by External.
type Field struct {
	Data     []byte
	External *ExternalRef
}

// Record is one user or system record inside a page. Heap is the stable
// heap number (independent of current chain position, spec GLOSSARY).
// TrxID/RollPtr are only meaningful for clustered-index records (spec §3).
type Record struct {
	Heap      uint16
	Type      RecordType
	Info      InfoBits
	Fields    []Field
	TrxID     uint64 // 0 for secondary-index records
	RollPtr   uint64 // 0 for secondary-index records, or if never updated
	NextHeap  uint16 // heap number of the next record in the chain (0 = none)
}

func (r *Record) DeleteMarked() bool { return r.Info&InfoDeleteMarked != 0 }

func (r *Record) SetDeleteMarked(v bool) {
	if v {
		r.Info |= InfoDeleteMarked
	} else {
		r.Info &^= InfoDeleteMarked
	}
}

// Key returns the ordering-relevant prefix of a record — every field except
// the two trailing system fields on a clustered record. Secondary-index
// records have no system fields, so Key returns all fields for them; the
// index descriptor (not this package) knows how many of a clustered
// record's fields are the user key versus the rest of the row.
func (r *Record) Key(nKeyFields int) [][]byte {
	n := nKeyFields
	if n > len(r.Fields) {
		n = len(r.Fields)
	}
	out := make([][]byte, n)
	for i := 0; i < n; i++ {
		out[i] = r.Fields[i].Data
	}
	return out
}

// EncodedSize estimates the on-page footprint of the record: a small fixed
// header plus each field's length prefix and bytes (externally stored
// fields only cost ExternalRefSize on-page).
func (r *Record) EncodedSize() int {
	size := recordHeaderSize
	for _, f := range r.Fields {
		if f.External != nil {
			size += ExternalRefSize
		} else {
			size += 2 + len(f.Data) // 2-byte length prefix
		}
	}
	return size
}

const recordHeaderSize = 1 /*info*/ + 1 /*type*/ + 2 /*heap*/ + 2 /*next heap*/ + 8 /*trx_id*/ + 8 /*roll_ptr*/
