package btree

import (
	"github.com/RahulKushwaha/embedded-innodb/buf"
	"github.com/RahulKushwaha/embedded-innodb/errs"
	"github.com/RahulKushwaha/embedded-innodb/mtr"
	"github.com/RahulKushwaha/embedded-innodb/page"
)

// writeBack re-encodes p onto b's bytes and logs the post-image as redo.
// Redo here carries the whole page rather than a minimal record-level diff
// (unlike InnoDB's byte-range logging): replay is then a trivial overwrite,
// trading log volume for a simple, obviously-idempotent recovery path.
func writeBack(m *mtr.Mtr, b *buf.Block, p *page.Page, typ mtr.RecType) {
	raw := p.Encode(uint32(len(b.Data)), b.ModifyClock())
	copy(b.Data, raw)
	m.LogWrite(b, typ, raw)
}

// Insert adds rec to the tree, trying the optimistic path (room on the
// existing leaf) before falling back to a pessimistic split (spec §4.4:
// "Optimistic insert... Pessimistic insert..."). The caller commits m.
func Insert(ix *Index, rec *page.Record, m *mtr.Mtr) error {
	key := rec.Key(ix.NKeyFields)
	c, err := Search(ix, key, page.ModeLE, buf.ModeX, m)
	if err != nil {
		return err
	}
	if c.Pos >= 0 && ix.Cmp(c.Page.Records[c.Pos].Key(ix.NKeyFields), key) == 0 && ix.Unique {
		m.ReleaseEarly(c.Leaf, buf.ModeX)
		return errs.New(errs.DuplicateKey, "duplicate key in unique index")
	}
	pos := c.Pos + 1
	if fits(c.Page, rec, uint32(len(c.Leaf.Data))) {
		c.Page.InsertAt(pos, rec)
		writeBack(m, c.Leaf, c.Page, mtr.RecRecInsert)
		return nil
	}
	// No room: release the optimistic leaf latch and redo the descent
	// X-latching every ancestor, since a split may propagate upward.
	m.ReleaseEarly(c.Leaf, buf.ModeX)
	return pessimisticInsert(ix, rec, key, m)
}

func fits(p *page.Page, rec *page.Record, pageSize uint32) bool {
	budget := page.FreeSpaceOfEmpty(pageSize)
	return p.UsedSpace()+rec.EncodedSize() <= budget
}

// pessimisticInsert re-descends holding X-latches on the whole path, splits
// the leaf (and, if necessary, its ancestors up to and including the root),
// then inserts rec into whichever half it now belongs on.
func pessimisticInsert(ix *Index, rec *page.Record, key [][]byte, m *mtr.Mtr) error {
	path, err := searchPath(ix, key, m)
	if err != nil {
		return err
	}
	leaf := path[len(path)-1]
	pos := leaf.Page.Search(key, ix.Cmp, page.ModeLE) + 1

	if fits(leaf.Page, rec, uint32(len(leaf.Block.Data))) {
		leaf.Page.InsertAt(pos, rec)
		writeBack(m, leaf.Block, leaf.Page, mtr.RecRecInsert)
		return nil
	}
	return splitAndInsert(ix, path, len(path)-1, rec, m)
}

// splitAndInsert splits path[level] into two pages at the midpoint, decides
// which half the new record belongs on and inserts it there, then inserts a
// node pointer for the new sibling into the parent (recursing upward, or
// creating a new root, if the parent has no room either) — spec §4.4
// "Pessimistic insert... split, in the worst case up to the root".
func splitAndInsert(ix *Index, path []pathNode, level int, rec *page.Record, m *mtr.Mtr) error {
	node := path[level]
	newPageNo, err := ix.allocatePage()
	if err != nil {
		return err
	}
	newBlock, err := m.Fetch(ix.Space, newPageNo, buf.ModeX)
	if err != nil {
		return err
	}

	mid := len(node.Page.Records) / 2
	leftRecs := append([]*page.Record(nil), node.Page.Records[:mid]...)
	rightRecs := append([]*page.Record(nil), node.Page.Records[mid:]...)

	key := rec.Key(ix.NKeyFields)
	insertLeft := len(leftRecs) == 0 || ix.Cmp(key, leftRecs[len(leftRecs)-1].Key(ix.NKeyFields)) <= 0

	newPage := page.Create(ix.Space, newPageNo, node.Page.Header.Level, ix.ID, ix.Compact)
	newPage.NextPage = node.Page.NextPage
	newPage.PrevPage = node.Block.PageNo
	newPage.SetRecords(rightRecs)
	node.Page.SetRecords(leftRecs)
	node.Page.NextPage = newPageNo

	target := node.Page
	if !insertLeft {
		target = newPage
	}
	insertInto(target, rec, ix)

	writeBack(m, node.Block, node.Page, mtr.RecPageReorganize)
	writeBack(m, newBlock, newPage, mtr.RecPageCreate)

	// The old following sibling (if any) still points its PrevPage at node,
	// but newPage is now the one immediately before it in leaf order —
	// relink it the same way tryMergeRight relinks the next-next page.
	if newPage.NextPage != 0 {
		nb, np, err := ix.loadPage(m, newPage.NextPage, buf.ModeX)
		if err != nil {
			return err
		}
		np.PrevPage = newPageNo
		writeBack(m, nb, np, mtr.RecPageReorganize)
		m.ReleaseEarly(nb, buf.ModeX)
	}

	// separating key for the new sibling's node pointer is its first record's key
	sepKey := newPage.Records[0].Key(ix.NKeyFields)
	ptr := nodePointerRecord(sepKey, newPageNo)

	if level == 0 {
		return newRoot(ix, node, newPageNo, newBlock, newPage, m)
	}
	parent := path[level-1]
	ppos := parent.Page.Search(sepKey, ix.Cmp, page.ModeLE) + 1
	if fits(parent.Page, ptr, uint32(len(parent.Block.Data))) {
		parent.Page.InsertAt(ppos, ptr)
		writeBack(m, parent.Block, parent.Page, mtr.RecRecInsert)
		return nil
	}
	return splitAndInsert(ix, path, level-1, ptr, m)
}

func insertInto(p *page.Page, rec *page.Record, ix *Index) {
	pos := p.Search(rec.Key(ix.NKeyFields), ix.Cmp, page.ModeLE) + 1
	p.InsertAt(pos, rec)
}

func nodePointerRecord(key [][]byte, childPage uint32) *page.Record {
	fields := make([]page.Field, len(key)+1)
	for i, k := range key {
		fields[i] = page.Field{Data: k}
	}
	fields[len(key)] = page.Field{Data: encodeChildPageNo(childPage)}
	return &page.Record{Type: page.RecordNodePointer, Fields: fields}
}

// newRoot handles a root split: the root page number never moves, so its
// old contents move into two new pages (the split halves) and the root
// itself is rewritten one level higher, pointing at both.
func newRoot(ix *Index, oldRoot pathNode, rightPageNo uint32, rightBlock *buf.Block, rightPage *page.Page, m *mtr.Mtr) error {
	leftPageNo, err := ix.allocatePage()
	if err != nil {
		return err
	}
	leftBlock, err := m.Fetch(ix.Space, leftPageNo, buf.ModeX)
	if err != nil {
		return err
	}
	leftPage := page.Create(ix.Space, leftPageNo, oldRoot.Page.Header.Level, ix.ID, ix.Compact)
	leftPage.NextPage = rightPageNo
	leftPage.SetRecords(oldRoot.Page.Records)
	writeBack(m, leftBlock, leftPage, mtr.RecPageCreate)

	// rightPage's PrevPage was set to the old root's page number before the
	// root split moved the root's contents onto leftPageNo; the root page
	// number itself is about to become an internal node, not a leaf, so
	// rightPage must now point back at leftPageNo instead.
	rightPage.PrevPage = leftPageNo
	writeBack(m, rightBlock, rightPage, mtr.RecPageReorganize)

	rootLevel := oldRoot.Page.Header.Level + 1
	newRootPage := page.Create(ix.Space, oldRoot.Block.PageNo, rootLevel, ix.ID, ix.Compact)
	leftPtr := nodePointerRecord(leftPage.Records[0].Key(ix.NKeyFields), leftPageNo)
	rightPtr := nodePointerRecord(rightPage.Records[0].Key(ix.NKeyFields), rightPageNo)
	newRootPage.InsertAt(0, leftPtr)
	newRootPage.InsertAt(1, rightPtr)
	writeBack(m, oldRoot.Block, newRootPage, mtr.RecPageCreate)
	return nil
}
