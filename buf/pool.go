package buf

import (
	"container/list"
	"sync"

	"github.com/RahulKushwaha/embedded-innodb/config"
	"github.com/RahulKushwaha/embedded-innodb/errs"
	"github.com/RahulKushwaha/embedded-innodb/fsp"
	"github.com/RahulKushwaha/embedded-innodb/logging"
	"github.com/sirupsen/logrus"
)

// PageIniter lets the caller supply a page's initial bytes when Get must
// fault it in for the first time (buf itself has no notion of page format).
type PageIniter func(space, pageNo uint32) ([]byte, error)

// Pool is the buffer pool: fixed frame count, LRU with young/old sublists,
// free list, page hash, and flush list sorted by oldest-modification LSN.
type Pool struct {
	mu sync.Mutex

	cfg      *config.Config
	spaces   *fsp.Manager
	pageSize uint32

	pageHash map[fsp.PageID]*list.Element // -> lruEntry
	lru      *list.List                   // combined LRU; young at front, old at back
	youngLen int
	oldLen   int

	free []*Block

	flushList []*Block // kept sorted by OldestModification ascending
	flush     *flushState

	log *logrus.Entry

	hit, miss uint64
}

type lruEntry struct {
	block *Block
	young bool
}

// isZeroPage reports whether raw is an untouched, never-formatted page
// (fsp.Space.Extend zero-fills new pages) — such a page has no checksum to
// verify yet, mirroring InnoDB's fil_page_is_zeroes check.
func isZeroPage(raw []byte) bool {
	for _, b := range raw {
		if b != 0 {
			return false
		}
	}
	return true
}

// Get returns a latched block for (space, pageNo), reading it from disk on
// a miss via read. Fails with TABLESPACE_DELETED if the space is gone.
func (p *Pool) Get(space, pageNo uint32, mode LatchMode) (*Block, error) {
	id := fsp.PageID{Space: space, Page: pageNo}
	p.mu.Lock()
	if el, ok := p.pageHash[id]; ok {
		b := el.Value.(*lruEntry).block
		p.touch(el)
		p.hit++
		p.mu.Unlock()
		p.latch(b, mode)
		return b, nil
	}
	p.miss++
	p.mu.Unlock()

	sp, err := p.spaces.GetSpace(space)
	if err != nil {
		return nil, err
	}
	raw := make([]byte, p.pageSize)
	if err := sp.ReadPage(pageNo, raw); err != nil {
		return nil, err
	}
	if !isZeroPage(raw) && (!fsp.VerifyChecksum(p.pageSize, raw) || fsp.TornWrite(p.pageSize, raw)) {
		if dw := p.spaces.Doublewrite(); dw != nil {
			ok, rerr := dw.Recover(space, pageNo, raw)
			if rerr != nil {
				return nil, rerr
			}
			if !ok {
				return nil, errs.New(errs.Corruption, "page checksum/LSN mismatch, no doublewrite copy")
			}
			p.log.WithField("page", id).Warn("page repaired from doublewrite")
		} else {
			return nil, errs.New(errs.Corruption, "page checksum/LSN mismatch")
		}
	}

	b := &Block{Space: space, PageNo: pageNo, Data: raw}
	p.insertBlock(b)
	p.latch(b, mode)
	return b, nil
}

// TryGet is the optimistic fast path used by persistent cursors (spec
// §4.1/§4.4): succeeds only if guess still holds the page and its
// ModifyClock is unchanged.
func (p *Pool) TryGet(guess *Block, expectedClock uint64, mode LatchMode) (*Block, bool) {
	if guess == nil {
		return nil, false
	}
	p.latch(guess, mode)
	if guess.ModifyClock() != expectedClock {
		p.Release(guess, mode)
		return nil, false
	}
	return guess, true
}

// Release unlatches a block previously returned by Get/TryGet.
func (p *Pool) Release(b *Block, mode LatchMode) {
	switch mode {
	case ModeS:
		b.RUnlock()
	case ModeX:
		b.Unlock()
	}
}

func (p *Pool) latch(b *Block, mode LatchMode) {
	switch mode {
	case ModeS:
		b.RLock()
	case ModeX:
		b.Lock()
	}
}

// MarkDirty bumps the modify clock and, if this is the block's first
// mutation since it was last clean, sets oldestModification and inserts it
// into the flush list — this is the per-page half of mtr.commit() (spec
// §4.2 step (b)); the caller (mtr) holds the x-latch already.
func (p *Pool) MarkDirty(b *Block, startLSN, endLSN uint64) {
	b.bumpModifyClock()
	p.mu.Lock()
	defer p.mu.Unlock()
	if b.OldestModification() == 0 {
		b.oldestModification = startLSN
		p.insertFlushSorted(b)
	}
	if endLSN > b.newestModification {
		b.newestModification = endLSN
	}
}

func (p *Pool) insertFlushSorted(b *Block) {
	i := 0
	for ; i < len(p.flushList); i++ {
		if p.flushList[i].OldestModification() > b.OldestModification() {
			break
		}
	}
	p.flushList = append(p.flushList, nil)
	copy(p.flushList[i+1:], p.flushList[i:])
	p.flushList[i] = b
}

func (p *Pool) insertBlock(b *Block) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if uint32(p.lru.Len()) >= p.cfg.BufferPoolPages {
		p.evictOneLocked()
	}
	el := p.lru.PushBack(&lruEntry{block: b, young: false})
	p.pageHash[b.pageID()] = el
	p.oldLen++
}

// evictOneLocked is evictOne under an already-held p.mu; callers of
// insertBlock hold the lock, so factor the tail scan out for reuse.
func (p *Pool) evictOneLocked() *Block {
	for el := p.lru.Back(); el != nil; el = el.Prev() {
		e := el.Value.(*lruEntry)
		if e.block.Replaceable() {
			p.lru.Remove(el)
			delete(p.pageHash, e.block.pageID())
			if e.young {
				p.youngLen--
			} else {
				p.oldLen--
			}
			return e.block
		}
	}
	return nil
}

// touch moves a hit block to the LRU front, promoting it to the young
// sublist on its first hit after being read in; no promotion delay
// (OldBlocksTime) is applied.
func (p *Pool) touch(el *list.Element) {
	e := el.Value.(*lruEntry)
	if e.young {
		p.lru.MoveToFront(el)
		return
	}
	e.young = true
	p.oldLen--
	p.youngLen++
	p.lru.MoveToFront(el)
}

// evictOne removes and returns one replaceable block from the LRU tail,
// or nil if none is replaceable.
func (p *Pool) evictOne() *Block {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.evictOneLocked()
}

// New builds an empty pool; blocks are allocated on a miss, up to
// cfg.BufferPoolPages, and no free list is preallocated.
func New(cfg *config.Config, spaces *fsp.Manager) *Pool {
	p := &Pool{
		cfg:      cfg,
		spaces:   spaces,
		pageSize: cfg.PageSize,
		pageHash: make(map[fsp.PageID]*list.Element),
		lru:      list.New(),
		log:      logging.For(logging.SysBuf),
	}
	return p
}

// Stats reports hit/miss counters, used by callers for observability only
// (spec §9: heuristic counters, never read for correctness).
func (p *Pool) Stats() (hit, miss uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hit, p.miss
}
