// Package buf implements the buffer pool (C2): frames allocated on demand up
// to a fixed capacity, cached by (space, page_no), an LRU young/old sublist, a page
// hash, a flush list sorted by oldest-modification LSN, and the doublewrite
// flush pipeline. Grounded on buffer_pool/*.go of the teacher.
package buf

import (
	"sync"
	"sync/atomic"

	"github.com/RahulKushwaha/embedded-innodb/fsp"
)

// LatchMode selects how a caller wants a block held.
type LatchMode int

const (
	ModeNone LatchMode = iota
	ModeS
	ModeX
)

// IOFix marks a block mid-flight on an I/O operation so it cannot be
// evicted or re-fetched concurrently.
type IOFix int32

const (
	IOFixNone IOFix = iota
	IOFixRead
	IOFixWrite
)

// Block is one cached frame: the page's raw bytes plus the bookkeeping the
// pool, the flush pipeline, and persistent cursors all need.
type Block struct {
	latch sync.RWMutex

	Space, PageNo uint32
	Data          []byte // exactly PageSize bytes

	ioFix       int32 // atomic IOFix
	bufFixCount int32 // atomic pin count

	// modifyClock increments on every mutation of this block's bytes while
	// it's x-latched; persistent cursors use it to detect whether a guessed
	// block is still the one they remember (spec §4.4 Store/Restore).
	modifyClock uint64

	oldestModification uint64 // LSN at which this block first became dirty; 0 = clean
	newestModification  uint64

	young   bool // whether this entry currently sits in the young sublist
	touched int64 // unix-nano of last access; not set or read by the pool

	freeListNext *Block // intrusive free-list link
}

func (b *Block) Lock()    { b.latch.Lock() }
func (b *Block) Unlock()  { b.latch.Unlock() }
func (b *Block) RLock()   { b.latch.RLock() }
func (b *Block) RUnlock() { b.latch.RUnlock() }

func (b *Block) IOFix() IOFix        { return IOFix(atomic.LoadInt32(&b.ioFix)) }
func (b *Block) setIOFix(v IOFix)    { atomic.StoreInt32(&b.ioFix, int32(v)) }
func (b *Block) Pin()                { atomic.AddInt32(&b.bufFixCount, 1) }
func (b *Block) Unpin()              { atomic.AddInt32(&b.bufFixCount, -1) }
func (b *Block) PinCount() int32     { return atomic.LoadInt32(&b.bufFixCount) }
func (b *Block) ModifyClock() uint64 { return atomic.LoadUint64(&b.modifyClock) }

func (b *Block) bumpModifyClock() { atomic.AddUint64(&b.modifyClock, 1) }

// Replaceable is the eviction predicate of spec §4.1: a block may be
// reused once it is clean, not mid-I/O, and unpinned.
func (b *Block) Replaceable() bool {
	return atomic.LoadUint64(&b.oldestModification) == 0 &&
		b.IOFix() == IOFixNone &&
		b.PinCount() == 0
}

func (b *Block) OldestModification() uint64 { return atomic.LoadUint64(&b.oldestModification) }
func (b *Block) NewestModification() uint64 { return atomic.LoadUint64(&b.newestModification) }

func (b *Block) pageID() fsp.PageID { return fsp.PageID{Space: b.Space, Page: b.PageNo} }
