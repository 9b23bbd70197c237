package btree

import (
	"github.com/RahulKushwaha/embedded-innodb/buf"
	"github.com/RahulKushwaha/embedded-innodb/mtr"
	"github.com/RahulKushwaha/embedded-innodb/page"
)

// Cursor is a transient, in-mtr position on a leaf page reached by
// descending from the root (spec §4.4 "Descent"). It does not survive past
// its owning mtr's Commit/Discard; PersistentCursor (pcur.go) is the type
// that does.
type Cursor struct {
	ix   *Index
	Mtr  *mtr.Mtr
	Leaf *buf.Block
	Page *page.Page
	// Pos is the index in Page.Records of the match for ModeGE/ModeG/ModeLE
	// (whichever the search mode asked for), or -1 if none (e.g. LE before
	// the first record, or the tree is empty).
	Pos int
}

// Search descends from the root S-latching (or X-latching, for the leaf
// only, if leafMode is ModeX) one page at a time, releasing each parent's
// latch as soon as the child is latched (spec §4.4 latch coupling), and
// returns a Cursor positioned on the leaf.
func Search(ix *Index, key [][]byte, searchMode page.SearchMode, leafMode buf.LatchMode, m *mtr.Mtr) (*Cursor, error) {
	pageNo := ix.RootPageNo
	var parent *buf.Block
	for {
		b, p, err := ix.loadPage(m, pageNo, buf.ModeS)
		if err != nil {
			return nil, err
		}
		if parent != nil {
			m.ReleaseEarly(parent, buf.ModeS)
		}
		if !p.IsLeaf() {
			pos := p.Search(key, ix.Cmp, page.ModeLE)
			if pos < 0 || (len(key) == 0 && searchMode == page.ModeGE) {
				pos = 0 // key below everything: descend via leftmost child
			}
			pageNo = childPageNo(fieldData(p.Records[pos]))
			parent = b
			continue
		}
		// reached the leaf: if the caller wants it X-latched, upgrade by
		// re-fetching under X (released the S-latch coupling already covered
		// internal pages only; the leaf itself is fetched directly under
		// leafMode to avoid a separate upgrade step).
		if leafMode == buf.ModeX {
			m.ReleaseEarly(b, buf.ModeS)
			b, p, err = ix.loadPage(m, pageNo, buf.ModeX)
			if err != nil {
				return nil, err
			}
		}
		pos := p.Search(key, ix.Cmp, searchMode)
		return &Cursor{ix: ix, Mtr: m, Leaf: b, Page: p, Pos: pos}, nil
	}
}

// pathNode is one level of an X-latched root-to-leaf descent kept alive for
// the duration of a pessimistic operation that may need to walk back up and
// mutate an ancestor (a split or a merge).
type pathNode struct {
	Block *buf.Block
	Page  *page.Page
}

// searchPath descends from the root X-latching every page on the path and
// keeping all of them in the mtr's memo (no early release), so the caller
// can propagate a split or merge upward without re-descending. Used only by
// the pessimistic paths (spec §4.4: "pessimistic insert... may need to
// split, in the worst case up to the root").
func searchPath(ix *Index, key [][]byte, m *mtr.Mtr) ([]pathNode, error) {
	var path []pathNode
	pageNo := ix.RootPageNo
	for {
		b, p, err := ix.loadPage(m, pageNo, buf.ModeX)
		if err != nil {
			return nil, err
		}
		path = append(path, pathNode{Block: b, Page: p})
		if p.IsLeaf() {
			return path, nil
		}
		pos := p.Search(key, ix.Cmp, page.ModeLE)
		if pos < 0 {
			pos = 0
		}
		pageNo = childPageNo(fieldData(p.Records[pos]))
	}
}

// Get is the point-lookup convenience: Search with ModeGE then check for
// exact equality.
func Get(ix *Index, key [][]byte, m *mtr.Mtr) (*page.Record, bool, error) {
	c, err := Search(ix, key, page.ModeGE, buf.ModeS, m)
	if err != nil {
		return nil, false, err
	}
	if c.Pos < 0 || c.Pos >= len(c.Page.Records) {
		return nil, false, nil
	}
	rec := c.Page.Records[c.Pos]
	if ix.Cmp(rec.Key(len(key)), key) != 0 {
		return nil, false, nil
	}
	return rec, true, nil
}
