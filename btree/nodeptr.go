package btree

import (
	"encoding/binary"

	"github.com/RahulKushwaha/embedded-innodb/page"
)

// Internal (non-leaf) pages store node pointer records: the separating key
// followed by one trailing field holding the child page number, mirroring
// InnoDB's REC_STATUS_NODE_PTR records (original_source/btr/btr0btr.cc).

func fieldData(rec *page.Record) [][]byte {
	out := make([][]byte, len(rec.Fields))
	for i, f := range rec.Fields {
		out[i] = f.Data
	}
	return out
}

func childPageNo(fields [][]byte) uint32 {
	last := fields[len(fields)-1]
	return binary.BigEndian.Uint32(last)
}

func encodeChildPageNo(p uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, p)
	return b
}
