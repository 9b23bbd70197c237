package fsp

import (
	"encoding/binary"

	"github.com/OneOfOne/xxhash"
)

// FileHeader is the normative 38-byte per-page envelope from spec §6:
// (checksum_low, page_no, prev_sibling, next_sibling, newest_lsn, page_type,
// flush_lsn_or_checksum_high, space_id).
type FileHeader struct {
	ChecksumLow  uint32
	PageNo       uint32
	PrevSibling  uint32
	NextSibling  uint32
	NewestLSN    uint64
	PageType     PageType
	ChecksumHigh uint32
	SpaceID      uint32
}

// FileTrailer is the 8-byte trailer: last 4 bytes of the LSN mirrored, plus
// the legacy checksum, used to detect torn writes (header LSN != trailer LSN).
type FileTrailer struct {
	LSNLow4  uint32
	Checksum uint32
}

func (h *FileHeader) Encode(buf []byte) {
	binary.BigEndian.PutUint32(buf[0:4], h.ChecksumLow)
	binary.BigEndian.PutUint32(buf[4:8], h.PageNo)
	binary.BigEndian.PutUint32(buf[8:12], h.PrevSibling)
	binary.BigEndian.PutUint32(buf[12:16], h.NextSibling)
	binary.BigEndian.PutUint64(buf[16:24], h.NewestLSN)
	binary.BigEndian.PutUint16(buf[24:26], uint16(h.PageType))
	binary.BigEndian.PutUint32(buf[26:30], h.ChecksumHigh)
	binary.BigEndian.PutUint32(buf[30:34], h.SpaceID)
	// bytes [34:38) reserved/padding to round FileHeaderSize to 38.
}

func DecodeFileHeader(buf []byte) FileHeader {
	return FileHeader{
		ChecksumLow:  binary.BigEndian.Uint32(buf[0:4]),
		PageNo:       binary.BigEndian.Uint32(buf[4:8]),
		PrevSibling:  binary.BigEndian.Uint32(buf[8:12]),
		NextSibling:  binary.BigEndian.Uint32(buf[12:16]),
		NewestLSN:    binary.BigEndian.Uint64(buf[16:24]),
		PageType:     PageType(binary.BigEndian.Uint16(buf[24:26])),
		ChecksumHigh: binary.BigEndian.Uint32(buf[26:30]),
		SpaceID:      binary.BigEndian.Uint32(buf[30:34]),
	}
}

func (t *FileTrailer) Encode(buf []byte) {
	binary.BigEndian.PutUint32(buf[0:4], t.LSNLow4)
	binary.BigEndian.PutUint32(buf[4:8], t.Checksum)
}

func DecodeFileTrailer(buf []byte) FileTrailer {
	return FileTrailer{
		LSNLow4:  binary.BigEndian.Uint32(buf[0:4]),
		Checksum: binary.BigEndian.Uint32(buf[4:8]),
	}
}

// Checksum computes the xxhash64-derived page checksum over the page body
// and the trailer's LSN word; the whole file header and the trailer's
// checksum word are not covered.
func Checksum(pageSize uint32, raw []byte) uint32 {
	h := xxhash.New64()
	h.Write(raw[FileHeaderSize : pageSize-FileTrailerSize+4]) // skip trailer checksum word
	sum := h.Sum64()
	return uint32(sum ^ (sum >> 32))
}

// TornWrite reports whether a page's header LSN disagrees with its trailer
// LSN mirror — the signal spec §3 defines for "not torn-write-consistent".
func TornWrite(pageSize uint32, raw []byte) bool {
	h := DecodeFileHeader(raw)
	t := DecodeFileTrailer(raw[pageSize-FileTrailerSize:])
	return uint32(h.NewestLSN) != t.LSNLow4
}

// StampLSN writes the same LSN into both the header and the trailer mirror,
// establishing torn-write consistency for a freshly mutated page.
func StampLSN(pageSize uint32, raw []byte, lsn uint64) {
	binary.BigEndian.PutUint64(raw[16:24], lsn)
	binary.BigEndian.PutUint32(raw[pageSize-FileTrailerSize:pageSize-4], uint32(lsn))
}

// StampChecksum recomputes and writes the page checksum into both the
// header's low word and the trailer's checksum word.
func StampChecksum(pageSize uint32, raw []byte) {
	sum := Checksum(pageSize, raw)
	binary.BigEndian.PutUint32(raw[0:4], sum)
	binary.BigEndian.PutUint32(raw[pageSize-4:pageSize], sum)
}

// VerifyChecksum reports whether the stored checksum matches the computed one.
func VerifyChecksum(pageSize uint32, raw []byte) bool {
	want := binary.BigEndian.Uint32(raw[pageSize-4 : pageSize])
	return want == Checksum(pageSize, raw)
}
