// Package btree implements the clustered and secondary B-tree index (C5):
// root-to-leaf descent, optimistic and pessimistic insert with split
// propagation, mark-and-sweep delete, and the persistent cursor (pcur) that
// survives an mtr commit across a Store/Restore cycle. Grounded on
// basic/btree.go, basic/tree.go, basic/index.go, basic/cursor.go of the
// teacher, and on original_source/btr/btr0cur.cc, original_source/btr/btr0pcur.cc,
// original_source/btr/btr0btr.cc for descent, split and pcur restoration
// semantics where the distilled spec is silent on exact behavior.
package btree

import (
	"github.com/RahulKushwaha/embedded-innodb/buf"
	"github.com/RahulKushwaha/embedded-innodb/fsp"
	"github.com/RahulKushwaha/embedded-innodb/logging"
	"github.com/RahulKushwaha/embedded-innodb/mtr"
	"github.com/RahulKushwaha/embedded-innodb/page"
)

// Index describes one B-tree: its root, the comparator over key tuples, and
// how many leading fields of a clustered record are the user key (the rest
// being the system fields and, for a clustered index, the row's other
// columns). The core never looks past this descriptor to learn about column
// types (spec §9).
type Index struct {
	Space      uint32
	RootPageNo uint32
	ID         uint64
	NKeyFields int
	Clustered  bool
	Unique     bool
	Compact    bool
	Cmp        page.Comparator

	pool   *buf.Pool
	log    *mtr.LogSys
	spaces *fsp.Manager
}

// Open binds an Index descriptor to the buffer pool, redo log and
// tablespace manager it will operate through.
func Open(space, rootPageNo uint32, id uint64, nKeyFields int, clustered, unique, compact bool, cmp page.Comparator, pool *buf.Pool, log *mtr.LogSys, spaces *fsp.Manager) *Index {
	return &Index{
		Space: space, RootPageNo: rootPageNo, ID: id,
		NKeyFields: nKeyFields, Clustered: clustered, Unique: unique, Compact: compact,
		Cmp: cmp, pool: pool, log: log, spaces: spaces,
	}
}

// allocatePage extends the tree's tablespace by one page and returns its
// page number. Segment-based allocation (spec §1's fsp free-space bitmap)
// is out of scope for the core; this is the minimal allocator the B-tree
// needs to obtain new pages for splits.
func (ix *Index) allocatePage() (uint32, error) {
	sp, err := ix.spaces.GetSpace(ix.Space)
	if err != nil {
		return 0, err
	}
	return sp.Extend(1)
}

// CreateRoot allocates and formats a fresh, empty leaf page as the root of a
// new tree (spec §4.3 page_create), logging the creation so recovery can
// replay it.
func CreateRoot(space, rootPageNo uint32, id uint64, compact bool, pool *buf.Pool, log *mtr.LogSys) error {
	m := mtr.Start(pool, log)
	b, err := m.Fetch(space, rootPageNo, buf.ModeX)
	if err != nil {
		m.Discard()
		return err
	}
	p := page.Create(space, rootPageNo, 0, id, compact)
	raw := p.Encode(uint32(len(b.Data)), 0)
	copy(b.Data, raw)
	m.LogWrite(b, mtr.RecPageCreate, nil)
	m.Commit()
	logging.For(logging.SysBtree).WithField("space", space).WithField("root", rootPageNo).Debug("tree created")
	return nil
}

func (ix *Index) loadPage(m *mtr.Mtr, pageNo uint32, mode buf.LatchMode) (*buf.Block, *page.Page, error) {
	b, err := m.Fetch(ix.Space, pageNo, mode)
	if err != nil {
		return nil, nil, err
	}
	p, _, err := page.Decode(b.Data, uint32(len(b.Data)))
	if err != nil {
		return nil, nil, err
	}
	return b, p, nil
}
