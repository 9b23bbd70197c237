package page

import (
	"encoding/binary"

	"github.com/RahulKushwaha/embedded-innodb/errs"
	"github.com/RahulKushwaha/embedded-innodb/fsp"
)

// Comparator compares two key tuples; index descriptors supply one so the
// B-tree and page layers never branch on column type (spec §9).
type Comparator func(a, b [][]byte) int

// Header is the page header, stored right after the 38-byte file header.
type Header struct {
	NRecords  uint16 // user records, excludes infimum/supremum
	NHeap     uint16 // next heap number to assign
	Level     uint16 // 0 = leaf
	IndexID   uint64
	Garbage   uint16 // bytes reclaimed by deletes, reusable by reorganize
	Compact   bool
}

const headerSize = 2 + 2 + 2 + 8 + 2 + 1

// Page is the decoded in-memory form of one on-disk page: infimum/supremum
// plus the user record chain in key order, and the directory of owner
// slots. Encode/Decode are the sole points of contact with the raw frame
// bytes the buffer pool hands out, matching the "raw frame in, record
// iteration interface out" design note of spec §9.
type Page struct {
	Space, PageNo uint32
	PrevPage      uint32 // 0 = none, sibling chain at this level
	NextPage      uint32
	Header        Header
	Records       []*Record // in key order, NOT including infimum/supremum
	Dir           []uint16  // owner slot -> heap number, first=infimum last=supremum
}

const (
	minOwned = 4
	maxOwned = 8
)

// Create initializes an empty page: infimum, supremum, empty directory.
// Grounds page_create (spec §4.3).
func Create(space, pageNo uint32, level uint16, indexID uint64, compact bool) *Page {
	return &Page{
		Space:  space,
		PageNo: pageNo,
		Header: Header{NHeap: 2, Level: level, IndexID: indexID, Compact: compact},
		Dir:    []uint16{0, 1}, // heap 0 = infimum, heap 1 = supremum, each n_owned=1
	}
}

// search performs page_cur_search (spec §4.3): binary search the directory
// for the owning slot, then linear-walk the owned group. mode selects the
// tie-breaking rule: L/G exclude equality, LE/GE include it.
type SearchMode int

const (
	ModeL SearchMode = iota
	ModeLE
	ModeG
	ModeGE
)

// Search returns the index into p.Records of the matching record, or -1 if
// none (e.g. LE before the first record). cmp compares a stored record's
// key against the caller's key: cmp(record, key).
func (p *Page) Search(key [][]byte, cmp Comparator, mode SearchMode) int {
	// binary search directory slots by their key to find the owner group,
	// narrowing to a small linear scan within the group (4-8 records).
	lo, hi := 0, len(p.Dir)-1
	slotKey := func(i int) [][]byte {
		heap := p.Dir[i]
		if idx := p.indexOfHeap(heap); idx >= 0 {
			return p.Records[idx].Key(len(key))
		}
		return nil // infimum/supremum: treated as -inf/+inf below
	}
	for lo < hi-0 && hi-lo > 1 {
		mid := (lo + hi) / 2
		k := slotKey(mid)
		if k == nil { // supremum slot only ever at hi, infimum only at lo
			hi = mid
			continue
		}
		if c := cmp(k, key); c < 0 || (c == 0 && (mode == ModeLE || mode == ModeG)) {
			lo = mid
		} else {
			hi = mid
		}
	}
	// Linear scan forward from the group owned by slot lo through the chain.
	start := 0
	if lo < len(p.Dir) {
		if idx := p.indexOfHeap(p.Dir[lo]); idx >= 0 {
			start = idx
		}
	}
	best := -1
	for i := start; i < len(p.Records); i++ {
		c := cmp(p.Records[i].Key(len(key)), key)
		switch mode {
		case ModeLE:
			if c <= 0 {
				best = i
			} else {
				return best
			}
		case ModeL:
			if c < 0 {
				best = i
			} else {
				return best
			}
		case ModeGE:
			if c >= 0 {
				return i
			}
		case ModeG:
			if c > 0 {
				return i
			}
		}
	}
	if mode == ModeLE || mode == ModeL {
		return best
	}
	return -1
}

func (p *Page) indexOfHeap(heap uint16) int {
	for i, r := range p.Records {
		if r.Heap == heap {
			return i
		}
	}
	return -1
}

// FreeSpaceOfEmpty returns the usable byte budget for records on an empty
// page of the given size, used by the caller to decide whether a field
// must be stored externally (spec §4.3/§4.5: threshold is half of this).
func FreeSpaceOfEmpty(pageSize uint32) int {
	return int(pageSize) - fsp.FileHeaderSize - fsp.FileTrailerSize - headerSize - 64 /* dir + infimum/supremum reserve */
}

// InsertAt inserts rec into the record chain at the position determined by
// pos (index into p.Records the new record should precede; len(p.Records)
// to append at the end). Assigns the next heap number, updates directory
// ownership counts, splitting an owner slot whose count would exceed
// maxOwned (spec §4.3).
func (p *Page) InsertAt(pos int, rec *Record) {
	rec.Heap = p.Header.NHeap
	p.Header.NHeap++
	recs := make([]*Record, 0, len(p.Records)+1)
	recs = append(recs, p.Records[:pos]...)
	recs = append(recs, rec)
	recs = append(recs, p.Records[pos:]...)
	p.Records = recs
	p.Header.NRecords++
	p.rebalanceDirectory()
}

// DeleteAt removes the record at index pos, returns its space to the
// garbage counter, and rebalances the directory, merging an owner slot
// whose count would drop below minOwned (spec §4.3).
func (p *Page) DeleteAt(pos int) {
	rec := p.Records[pos]
	p.Header.Garbage += uint16(rec.EncodedSize())
	p.Records = append(p.Records[:pos], p.Records[pos+1:]...)
	p.Header.NRecords--
	p.rebalanceDirectory()
}

// rebalanceDirectory rebuilds owner slots so each (except the first/last,
// which always own exactly infimum/supremum) owns between minOwned and
// maxOwned consecutive user records — the page directory invariant of
// spec §3/§4.3.
func (p *Page) rebalanceDirectory() {
	dir := make([]uint16, 0, len(p.Records)/minOwned+2)
	dir = append(dir, 0) // infimum, n_owned=1 implicit
	i := 0
	for i < len(p.Records) {
		end := i + maxOwned
		if end > len(p.Records) {
			end = len(p.Records)
		}
		if len(p.Records)-end > 0 && len(p.Records)-end < minOwned {
			end = len(p.Records) // fold remainder into this slot rather than leave a short one
		}
		dir = append(dir, p.Records[end-1].Heap)
		i = end
	}
	dir = append(dir, 1) // supremum
	p.Dir = dir
}

// Reorganize compacts the page in place, rebuilding the record chain from
// scratch to reclaim the bytes the garbage counter has accumulated
// (page_reorganize, spec §4.3). Since Records is always a dense compacted
// Go slice (not a freelist over raw bytes), this only needs to reset the
// garbage counter — the adaptation point from the original's literal
// byte-shuffling to an in-memory slice representation.
func (p *Page) Reorganize() {
	p.Header.Garbage = 0
	// Records is already maintained in key order by InsertAt/DeleteAt, so
	// there is nothing to re-sort; only the directory needs rebuilding.
	p.rebalanceDirectory()
}

// UsedSpace sums the on-page footprint of every user record, for callers
// deciding whether an insert fits (spec §4.3/§4.5).
func (p *Page) UsedSpace() int {
	total := 0
	for _, r := range p.Records {
		total += r.EncodedSize()
	}
	return total
}

// SetRecords replaces the record chain wholesale (e.g. after a split) and
// rebuilds the directory. Records must already be in key order.
func (p *Page) SetRecords(recs []*Record) {
	p.Records = recs
	p.Header.NRecords = uint16(len(recs))
	p.rebalanceDirectory()
}

// IsLeaf reports whether this page is a B-tree leaf (level 0).
func (p *Page) IsLeaf() bool { return p.Header.Level == 0 }

// CheckInvariant verifies the testable property of spec §8: within a page,
// adjacent user records are strictly increasing in key order.
func (p *Page) CheckInvariant(cmp Comparator, nKeyFields int) bool {
	for i := 1; i < len(p.Records); i++ {
		if cmp(p.Records[i-1].Key(nKeyFields), p.Records[i].Key(nKeyFields)) >= 0 {
			return false
		}
	}
	return true
}

// --- encode/decode boundary with the raw frame ---

// Encode serializes the page into a pageSize-byte frame including the file
// header/trailer (fsp.FileHeader / fsp.FileTrailer), so buf can hand the
// result straight to fsp for I/O.
func (p *Page) Encode(pageSize uint32, lsn uint64) []byte {
	buf := make([]byte, pageSize)
	fh := fsp.FileHeader{
		PageNo:      p.PageNo,
		PrevSibling: p.PrevPage,
		NextSibling: p.NextPage,
		NewestLSN:   lsn,
		PageType:    fsp.PageTypeIndex,
		SpaceID:     p.Space,
	}
	fh.Encode(buf)

	off := fsp.FileHeaderSize
	binary.BigEndian.PutUint16(buf[off:], p.Header.NRecords)
	binary.BigEndian.PutUint16(buf[off+2:], p.Header.NHeap)
	binary.BigEndian.PutUint16(buf[off+4:], p.Header.Level)
	binary.BigEndian.PutUint64(buf[off+6:], p.Header.IndexID)
	binary.BigEndian.PutUint16(buf[off+14:], p.Header.Garbage)
	if p.Header.Compact {
		buf[off+16] = 1
	}
	off += headerSize

	binary.BigEndian.PutUint16(buf[off:], uint16(len(p.Records)))
	off += 2
	for _, r := range p.Records {
		off = encodeRecord(buf, off, r)
	}

	binary.BigEndian.PutUint16(buf[off:], uint16(len(p.Dir)))
	off += 2
	for _, h := range p.Dir {
		binary.BigEndian.PutUint16(buf[off:], h)
		off += 2
	}

	fsp.StampLSN(pageSize, buf, lsn)
	fsp.StampChecksum(pageSize, buf)
	return buf
}

// Decode parses a raw frame produced by Encode back into a Page.
func Decode(raw []byte, pageSize uint32) (*Page, fsp.FileHeader, error) {
	if uint32(len(raw)) != pageSize {
		return nil, fsp.FileHeader{}, errs.New(errs.Corruption, "short page read")
	}
	fh := fsp.DecodeFileHeader(raw)
	p := &Page{Space: fh.SpaceID, PageNo: fh.PageNo, PrevPage: fh.PrevSibling, NextPage: fh.NextSibling}

	off := fsp.FileHeaderSize
	p.Header.NRecords = binary.BigEndian.Uint16(raw[off:])
	p.Header.NHeap = binary.BigEndian.Uint16(raw[off+2:])
	p.Header.Level = binary.BigEndian.Uint16(raw[off+4:])
	p.Header.IndexID = binary.BigEndian.Uint64(raw[off+6:])
	p.Header.Garbage = binary.BigEndian.Uint16(raw[off+14:])
	p.Header.Compact = raw[off+16] == 1
	off += headerSize

	n := int(binary.BigEndian.Uint16(raw[off:]))
	off += 2
	p.Records = make([]*Record, n)
	for i := 0; i < n; i++ {
		var rec *Record
		rec, off = decodeRecord(raw, off)
		p.Records[i] = rec
	}

	nd := int(binary.BigEndian.Uint16(raw[off:]))
	off += 2
	p.Dir = make([]uint16, nd)
	for i := 0; i < nd; i++ {
		p.Dir[i] = binary.BigEndian.Uint16(raw[off:])
		off += 2
	}
	return p, fh, nil
}

func encodeRecord(buf []byte, off int, r *Record) int {
	buf[off] = byte(r.Info)
	buf[off+1] = byte(r.Type)
	binary.BigEndian.PutUint16(buf[off+2:], r.Heap)
	binary.BigEndian.PutUint16(buf[off+4:], r.NextHeap)
	binary.BigEndian.PutUint64(buf[off+6:], r.TrxID)
	binary.BigEndian.PutUint64(buf[off+14:], r.RollPtr)
	off += recordHeaderSize
	binary.BigEndian.PutUint16(buf[off:], uint16(len(r.Fields)))
	off += 2
	for _, f := range r.Fields {
		if f.External != nil {
			buf[off] = 1
			off++
			binary.BigEndian.PutUint32(buf[off:], f.External.Space)
			binary.BigEndian.PutUint32(buf[off+4:], f.External.Page)
			binary.BigEndian.PutUint32(buf[off+8:], f.External.Offset)
			binary.BigEndian.PutUint32(buf[off+12:], f.External.Length)
			binary.BigEndian.PutUint32(buf[off+16:], f.External.PrevPage)
			off += ExternalRefSize
			binary.BigEndian.PutUint16(buf[off:], uint16(len(f.Data)))
			off += 2
			copy(buf[off:], f.Data)
			off += len(f.Data)
		} else {
			buf[off] = 0
			off++
			binary.BigEndian.PutUint16(buf[off:], uint16(len(f.Data)))
			off += 2
			copy(buf[off:], f.Data)
			off += len(f.Data)
		}
	}
	return off
}

func decodeRecord(buf []byte, off int) (*Record, int) {
	r := &Record{
		Info:     InfoBits(buf[off]),
		Type:     RecordType(buf[off+1]),
		Heap:     binary.BigEndian.Uint16(buf[off+2:]),
		NextHeap: binary.BigEndian.Uint16(buf[off+4:]),
		TrxID:    binary.BigEndian.Uint64(buf[off+6:]),
		RollPtr:  binary.BigEndian.Uint64(buf[off+14:]),
	}
	off += recordHeaderSize
	nf := int(binary.BigEndian.Uint16(buf[off:]))
	off += 2
	r.Fields = make([]Field, nf)
	for i := 0; i < nf; i++ {
		external := buf[off] == 1
		off++
		var ref *ExternalRef
		if external {
			ref = &ExternalRef{
				Space:    binary.BigEndian.Uint32(buf[off:]),
				Page:     binary.BigEndian.Uint32(buf[off+4:]),
				Offset:   binary.BigEndian.Uint32(buf[off+8:]),
				Length:   binary.BigEndian.Uint32(buf[off+12:]),
				PrevPage: binary.BigEndian.Uint32(buf[off+16:]),
			}
			off += ExternalRefSize
		}
		l := int(binary.BigEndian.Uint16(buf[off:]))
		off += 2
		data := make([]byte, l)
		copy(data, buf[off:off+l])
		off += l
		r.Fields[i] = Field{Data: data, External: ref}
	}
	return r, off
}
