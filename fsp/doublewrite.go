package fsp

import (
	"sync"

	"github.com/RahulKushwaha/embedded-innodb/errs"
	"github.com/RahulKushwaha/embedded-innodb/logging"
)

// Doublewrite is the fixed, pre-allocated staging area inside the system
// tablespace used to make whole-page writes atomic against torn writes
// (spec §4.1). It reserves `extents` extents' worth of pages (CreateSpace
// passes 2 and extends the system space over the whole area)
// starting right after the trx-sys page, laid out as two alternating
// blocks (matching trx0sys.cc's TRX_SYS_DOUBLEWRITE_BLOCK1/BLOCK2) so one
// block can be writing while the other is reusable.
type Doublewrite struct {
	mu        sync.Mutex
	sys       *Space
	pageSize  uint32
	startPage uint32 // first page of the doublewrite area
	slots     uint32 // pages per block
	blocks    int    // number of alternating blocks (2)
	cur       int    // which block is active
	inUse     bool
}

const extentPages = 64 // pages per extent, a conventional InnoDB constant

func NewDoublewrite(sys *Space, pageSize uint32, extents int) *Doublewrite {
	return &Doublewrite{
		sys:       sys,
		pageSize:  pageSize,
		startPage: TrxSysPageNo + 1,
		slots:     uint32(extents * extentPages / 2),
		blocks:    2,
	}
}

// Reserve claims the alternate block for this flush batch and marks it in
// use. It does not wait for an already-staged batch: a second Reserve before
// Release simply switches to the other block.
func (dw *Doublewrite) Reserve(n int) error {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	if uint32(n) > dw.slots {
		return errs.New(errs.OutOfFileSpace, "flush batch exceeds doublewrite slot capacity")
	}
	dw.cur = (dw.cur + 1) % dw.blocks
	dw.inUse = true
	return nil
}

// WriteBatch copies pages (raw page bytes, already checksummed and LSN
// stamped) into the doublewrite area, fsyncs, then lets the caller proceed
// to write each page to its home location. Must be called after Reserve.
func (dw *Doublewrite) WriteBatch(pages [][]byte) error {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	base := dw.startPage + uint32(dw.cur)*dw.slots
	for i, p := range pages {
		if err := dw.sys.WritePage(base+uint32(i), p); err != nil {
			return err
		}
	}
	if err := dw.sys.Sync(); err != nil {
		return err
	}
	logging.For(logging.SysFsp).WithField("n", len(pages)).Debug("doublewrite batch staged")
	return nil
}

// Release marks the current block reusable once every page in the batch has
// also been written to its home location.
func (dw *Doublewrite) Release() {
	dw.mu.Lock()
	dw.inUse = false
	dw.mu.Unlock()
}

// Recover scans both doublewrite blocks for a page matching (space, pageNo)
// and, if one is found with a valid checksum, leaves its bytes in buf — used
// by buf.Pool.Get when a page read from its home location is torn (spec
// §4.1, scenario 4 of §8).
func (dw *Doublewrite) Recover(space, pageNo uint32, buf []byte) (bool, error) {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	for b := 0; b < dw.blocks; b++ {
		base := dw.startPage + uint32(b)*dw.slots
		for i := uint32(0); i < dw.slots; i++ {
			if err := dw.sys.ReadPage(base+i, buf); err != nil {
				return false, err
			}
			h := DecodeFileHeader(buf)
			if h.SpaceID == space && h.PageNo == pageNo && VerifyChecksum(dw.pageSize, buf) {
				return true, nil
			}
		}
	}
	return false, nil
}
