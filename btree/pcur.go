package btree

import (
	"github.com/RahulKushwaha/embedded-innodb/buf"
	"github.com/RahulKushwaha/embedded-innodb/mtr"
	"github.com/RahulKushwaha/embedded-innodb/page"
)

// RelPos records a persistent cursor's position relative to the record it
// last stood on, so Restore knows how to re-derive a search mode if the
// optimistic fast path fails (spec §4.4).
type RelPos int

const (
	RelOn RelPos = iota
	RelBefore
	RelAfter
	RelBeforeFirstInTree
	RelAfterLastInTree
)

// PersistentCursor is a cursor that survives across mtr commits: Store
// captures enough to relocate the record afterward, Restore relocates it in
// a fresh mtr, first trying an O(1) guess before falling back to a full
// re-search (spec §4.4 "Persistent cursor (pcur)").
type PersistentCursor struct {
	ix *Index

	keyPrefix [][]byte
	rel       RelPos

	block       *buf.Block
	modifyClock uint64
	heap        uint16
}

// Store captures c's position: the key prefix of the record it stands on
// (or nearest to), the block pointer and its modify clock for the
// optimistic fast path, per spec §4.4.
func (pc *PersistentCursor) Store(c *Cursor) {
	pc.ix = c.ix
	pc.block = c.Leaf
	pc.modifyClock = c.Leaf.ModifyClock()
	switch {
	case c.Pos < 0:
		pc.rel = RelBeforeFirstInTree
	case c.Pos >= len(c.Page.Records):
		pc.rel = RelAfterLastInTree
	default:
		pc.rel = RelOn
		rec := c.Page.Records[c.Pos]
		pc.keyPrefix = rec.Key(pc.ix.NKeyFields)
		pc.heap = rec.Heap
	}
}

// Restore relocates the cursor in mode, returning a fresh Cursor. It first
// tries buf.Pool.TryGet against the remembered block and modify clock
// (spec §4.1/§4.4's optimistic restoration): if the page hasn't changed
// since Store, the record is still at the same heap number and no
// re-descent is needed. Otherwise it falls back to a full re-search, using
// a mode derived from the stored relative position: ON -> LE, AFTER -> G,
// BEFORE -> L.
func (pc *PersistentCursor) Restore(mode buf.LatchMode, pool *buf.Pool, m *mtr.Mtr) (*Cursor, bool, error) {
	if pc.rel == RelOn {
		if b, ok := pool.TryGet(pc.block, pc.modifyClock, mode); ok {
			p, _, err := page.Decode(b.Data, uint32(len(b.Data)))
			if err != nil {
				pool.Release(b, mode)
				return nil, false, err
			}
			for i, r := range p.Records {
				if r.Heap == pc.heap {
					m.AdoptLatch(b, mode)
					return &Cursor{ix: pc.ix, Mtr: m, Leaf: b, Page: p, Pos: i}, true, nil
				}
			}
			pool.Release(b, mode)
		}
	}

	searchMode := page.ModeLE
	switch pc.rel {
	case RelAfter, RelBeforeFirstInTree:
		searchMode = page.ModeG
	case RelBefore, RelAfterLastInTree:
		searchMode = page.ModeL
	}
	key := pc.keyPrefix
	if key == nil {
		key = [][]byte{} // BEFORE_FIRST/AFTER_LAST: any bound works, search clamps to an end
	}
	c, err := Search(pc.ix, key, searchMode, mode, m)
	if err != nil {
		return nil, false, err
	}
	return c, false, nil
}

// MoveToNextRec advances within the current leaf, or across the sibling
// link to the next leaf if the current one is exhausted (spec §4.4
// "move_to_next_rec... move_to_next_page").
func MoveToNextRec(ix *Index, c *Cursor) (*Cursor, bool, error) {
	if c.Pos+1 < len(c.Page.Records) {
		return &Cursor{ix: ix, Mtr: c.Mtr, Leaf: c.Leaf, Page: c.Page, Pos: c.Pos + 1}, true, nil
	}
	if c.Page.NextPage == 0 {
		return c, false, nil
	}
	nb, np, err := ix.loadPage(c.Mtr, c.Page.NextPage, buf.ModeS)
	if err != nil {
		return nil, false, err
	}
	c.Mtr.ReleaseEarly(c.Leaf, buf.ModeS)
	nc := &Cursor{ix: ix, Mtr: c.Mtr, Leaf: nb, Page: np, Pos: 0}
	return nc, len(np.Records) > 0, nil
}

// MoveToPrevRec is MoveToNextRec's mirror image (spec §4.4 "move_to_prev_rec").
// It latches the previous page while still holding the current one, which
// is the direction spec §4.4 flags as latch-order-inverting; callers doing
// a sustained backward scan should commit and restart the mtr per record
// rather than chaining MoveToPrevRec calls under one mtr.
func MoveToPrevRec(ix *Index, c *Cursor) (*Cursor, bool, error) {
	if c.Pos-1 >= 0 {
		return &Cursor{ix: ix, Mtr: c.Mtr, Leaf: c.Leaf, Page: c.Page, Pos: c.Pos - 1}, true, nil
	}
	if c.Page.PrevPage == 0 {
		return c, false, nil
	}
	pb, pp, err := ix.loadPage(c.Mtr, c.Page.PrevPage, buf.ModeS)
	if err != nil {
		return nil, false, err
	}
	c.Mtr.ReleaseEarly(c.Leaf, buf.ModeS)
	pc := &Cursor{ix: ix, Mtr: c.Mtr, Leaf: pb, Page: pp, Pos: len(pp.Records) - 1}
	return pc, len(pp.Records) > 0, nil
}
