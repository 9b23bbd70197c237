package undo

// RollPtr packs (rollback segment id, undo page number, byte offset) into a
// single 64-bit value stored inline on a clustered record (spec GLOSSARY
// "roll pointer"), matching original_source/trx/trx0rec.cc's field widths
// collapsed to fit a single machine word: 16 bits of rseg id, 32 of page
// number, 16 of in-page offset.
func Pack(rsegID uint32, pageNo uint32, offset uint16) uint64 {
	return uint64(uint16(rsegID))<<48 | uint64(pageNo)<<16 | uint64(offset)
}

func Unpack(rp uint64) (rsegID uint32, pageNo uint32, offset uint16) {
	rsegID = uint32(rp >> 48)
	pageNo = uint32(rp >> 16)
	offset = uint16(rp)
	return
}
