package btree

import (
	"github.com/RahulKushwaha/embedded-innodb/buf"
	"github.com/RahulKushwaha/embedded-innodb/errs"
	"github.com/RahulKushwaha/embedded-innodb/mtr"
	"github.com/RahulKushwaha/embedded-innodb/page"
)

// mergeThreshold is the occupancy below which PhysicalDelete attempts to
// fold a leaf into its right sibling (spec §4.4 "merge on low occupancy").
const mergeThresholdNum, mergeThresholdDen = 1, 4

// MarkDelete sets the delete-marked bit on the record matching key without
// removing it from the page (spec §4.4 "mark-and-sweep separation": the
// physical row and any stale secondary-index entries live on, visible to
// older read views, until purge reclaims them). The caller is responsible
// for writing an undo record before calling this so the mark can be rolled
// back.
func MarkDelete(ix *Index, key [][]byte, m *mtr.Mtr) (*page.Record, error) {
	c, err := Search(ix, key, page.ModeGE, buf.ModeX, m)
	if err != nil {
		return nil, err
	}
	if c.Pos < 0 || c.Pos >= len(c.Page.Records) || ix.Cmp(c.Page.Records[c.Pos].Key(ix.NKeyFields), key) != 0 {
		m.ReleaseEarly(c.Leaf, buf.ModeX)
		return nil, errs.New(errs.MissingHistory, "delete-mark: key not found")
	}
	rec := c.Page.Records[c.Pos]
	rec.SetDeleteMarked(true)
	typ := mtr.RecRecSecDeleteMark
	if ix.Clustered {
		typ = mtr.RecRecClustDeleteMark
	}
	writeBack(m, c.Leaf, c.Page, typ)
	return rec, nil
}

// ClearDeleteMark unsets the delete-marked bit, used by rollback to undo a
// MarkDelete (spec §4.6 "undo a delete-mark" on ROLLBACK).
func ClearDeleteMark(ix *Index, key [][]byte, m *mtr.Mtr) error {
	c, err := Search(ix, key, page.ModeGE, buf.ModeX, m)
	if err != nil {
		return err
	}
	if c.Pos < 0 || c.Pos >= len(c.Page.Records) || ix.Cmp(c.Page.Records[c.Pos].Key(ix.NKeyFields), key) != 0 {
		m.ReleaseEarly(c.Leaf, buf.ModeX)
		return errs.New(errs.MissingHistory, "clear delete-mark: key not found")
	}
	rec := c.Page.Records[c.Pos]
	rec.SetDeleteMarked(false)
	typ := mtr.RecRecSecDeleteMark
	if ix.Clustered {
		typ = mtr.RecRecClustDeleteMark
	}
	writeBack(m, c.Leaf, c.Page, typ)
	return nil
}

// Replace overwrites the fields of the record matching key in place,
// restoring an older version during rollback or applying an UPDATE (spec
// §4.6). It fails if the record would no longer fit; callers needing to
// grow a record significantly should delete and re-insert instead.
func Replace(ix *Index, rec *page.Record, m *mtr.Mtr) error {
	c, err := Search(ix, rec.Key(ix.NKeyFields), page.ModeGE, buf.ModeX, m)
	if err != nil {
		return err
	}
	if c.Pos < 0 || c.Pos >= len(c.Page.Records) || ix.Cmp(c.Page.Records[c.Pos].Key(ix.NKeyFields), rec.Key(ix.NKeyFields)) != 0 {
		m.ReleaseEarly(c.Leaf, buf.ModeX)
		return errs.New(errs.MissingHistory, "replace: key not found")
	}
	heap := c.Page.Records[c.Pos].Heap
	rec.Heap = heap
	c.Page.Records[c.Pos] = rec
	writeBack(m, c.Leaf, c.Page, mtr.RecRecUpdateInPlace)
	return nil
}

// PhysicalDelete removes a delete-marked record from its page for good —
// purge's job once no read view can still see it (spec §4.4/§4.6). It also
// attempts to merge the page into its right sibling if occupancy has
// dropped below mergeThreshold.
func PhysicalDelete(ix *Index, key [][]byte, m *mtr.Mtr) error {
	path, err := searchPath(ix, key, m)
	if err != nil {
		return err
	}
	leaf := path[len(path)-1]
	pos := leaf.Page.Search(key, ix.Cmp, page.ModeGE)
	if pos < 0 || pos >= len(leaf.Page.Records) || ix.Cmp(leaf.Page.Records[pos].Key(ix.NKeyFields), key) != 0 {
		return errs.New(errs.MissingHistory, "physical delete: key not found")
	}
	leaf.Page.DeleteAt(pos)
	writeBack(m, leaf.Block, leaf.Page, mtr.RecRecDelete)

	if len(path) < 2 {
		return nil // root is the only page, nothing to merge
	}
	budget := page.FreeSpaceOfEmpty(uint32(len(leaf.Block.Data)))
	if leaf.Page.UsedSpace()*mergeThresholdDen >= budget*mergeThresholdNum {
		return nil // still occupied enough
	}
	return tryMergeRight(ix, path, m)
}

// tryMergeRight folds path's leaf into its right sibling when the combined
// contents fit on one page, then removes the now-empty page's node pointer
// from the parent. The parent itself is not merged or rebalanced, however
// sparse that leaves it.
func tryMergeRight(ix *Index, path []pathNode, m *mtr.Mtr) error {
	level := len(path) - 1
	node := path[level]
	if node.Page.NextPage == 0 {
		return nil
	}
	sib, sibPage, err := ix.loadPage(m, node.Page.NextPage, buf.ModeX)
	if err != nil {
		return err
	}
	budget := page.FreeSpaceOfEmpty(uint32(len(sib.Data)))
	if node.Page.UsedSpace()+sibPage.UsedSpace() > budget {
		m.ReleaseEarly(sib, buf.ModeX)
		return nil
	}

	merged := append(append([]*page.Record(nil), node.Page.Records...), sibPage.Records...)
	node.Page.SetRecords(merged)
	node.Page.NextPage = sibPage.NextPage
	writeBack(m, node.Block, node.Page, mtr.RecPageReorganize)

	if sibPage.NextPage != 0 {
		nnb, nnp, err := ix.loadPage(m, sibPage.NextPage, buf.ModeX)
		if err != nil {
			return err
		}
		nnp.PrevPage = node.Block.PageNo
		writeBack(m, nnb, nnp, mtr.RecPageReorganize)
		m.ReleaseEarly(nnb, buf.ModeX)
	}

	parent := path[level-1]
	ppos := parent.Page.Search(sibPage.Records[0].Key(ix.NKeyFields), ix.Cmp, page.ModeGE)
	if ppos >= 0 && ppos < len(parent.Page.Records) {
		parent.Page.DeleteAt(ppos)
		writeBack(m, parent.Block, parent.Page, mtr.RecRecDelete)
	}
	m.ReleaseEarly(sib, buf.ModeX)
	return nil
}
