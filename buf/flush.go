package buf

import (
	"sync"
	"time"

	"github.com/RahulKushwaha/embedded-innodb/errs"
)

// FlushKind selects which list flush_batch drains from (spec §4.1).
type FlushKind int

const (
	FlushLRU FlushKind = iota
	FlushList
)

var errBusy = errs.New(errs.IOError, "flush batch of this kind already running")

type flushState struct {
	mu      sync.Mutex
	running map[FlushKind]bool
}

func (p *Pool) ensureFlushState() {
	if p.flush == nil {
		p.flush = &flushState{running: make(map[FlushKind]bool)}
	}
}

// FlushBatch writes up to minN dirty pages through the doublewrite buffer
// to their home locations (spec §4.1). FlushLRU takes the dirty blocks
// nearest the LRU tail (oldest-accessed); FlushList takes pages whose
// OldestModification is below lsnLimit. Returns errBusy if a batch of the
// same kind is already running.
func (p *Pool) FlushBatch(kind FlushKind, minN int, lsnLimit uint64) (int, error) {
	p.ensureFlushState()
	p.flush.mu.Lock()
	if p.flush.running[kind] {
		p.flush.mu.Unlock()
		return 0, errBusy
	}
	p.flush.running[kind] = true
	p.flush.mu.Unlock()
	defer func() {
		p.flush.mu.Lock()
		p.flush.running[kind] = false
		p.flush.mu.Unlock()
	}()

	candidates := p.pickCandidates(kind, minN, lsnLimit)
	if len(candidates) == 0 {
		return 0, nil
	}
	return p.writeThroughDoublewrite(candidates)
}

func (p *Pool) pickCandidates(kind FlushKind, minN int, lsnLimit uint64) []*Block {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []*Block
	switch kind {
	case FlushList:
		for _, b := range p.flushList {
			if len(out) >= minN {
				break
			}
			if b.OldestModification() != 0 && b.OldestModification() < lsnLimit {
				out = append(out, b)
			}
		}
	case FlushLRU:
		for el := p.lru.Back(); el != nil && len(out) < minN; el = el.Prev() {
			b := el.Value.(*lruEntry).block
			if b.OldestModification() != 0 {
				out = append(out, b)
			}
		}
	}
	return out
}

// writeThroughDoublewrite stages the batch in the doublewrite area, fsyncs
// it, writes each page to its home location, then releases the doublewrite
// slot and clears each page's dirty bit (spec §4.1).
func (p *Pool) writeThroughDoublewrite(blocks []*Block) (int, error) {
	raws := make([][]byte, len(blocks))
	for i, b := range blocks {
		b.RLock()
		raws[i] = append([]byte(nil), b.Data...)
		b.RUnlock()
	}

	dw := p.spaces.Doublewrite()
	if dw != nil {
		if err := dw.Reserve(len(raws)); err != nil {
			return 0, err
		}
		if err := dw.WriteBatch(raws); err != nil {
			return 0, err
		}
		defer dw.Release()
	}

	written := 0
	for i, b := range blocks {
		sp, err := p.spaces.GetSpace(b.Space)
		if err != nil {
			return written, err
		}
		if err := sp.WritePage(b.PageNo, raws[i]); err != nil {
			return written, err
		}
		p.clearDirty(b)
		written++
	}
	return written, nil
}

func (p *Pool) clearDirty(b *Block) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b.oldestModification = 0
	b.newestModification = 0
	for i, fb := range p.flushList {
		if fb == b {
			p.flushList = append(p.flushList[:i], p.flushList[i+1:]...)
			break
		}
	}
}

// OldestModificationInFlushList returns the checkpoint LSN: the minimum
// OldestModification across the flush list, or 0 if it's empty. Recovery
// resumes from this LSN (spec §4.2 step 1).
func (p *Pool) OldestModificationInFlushList() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.flushList) == 0 {
		return 0
	}
	return p.flushList[0].OldestModification()
}

// CheckFlushListInvariant verifies the testable property of spec §8: every
// page in the flush list has 0 < oldest_modification <= newest_modification.
func (p *Pool) CheckFlushListInvariant() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, b := range p.flushList {
		if !(b.OldestModification() > 0 && b.OldestModification() <= b.NewestModification()) {
			return false
		}
	}
	return true
}

// Pacer implements the flush-pacing heuristic of spec §4.1: a rolling
// window of (redo generation rate, LRU flush rate) used to compute a
// target flush-list rate that avoids bursts coinciding with log-capacity
// pressure.
type Pacer struct {
	mu         sync.Mutex
	window     time.Duration
	redoBytes  []sample
	lruFlushed []sample
}

type sample struct {
	at  time.Time
	amt float64
}

func NewPacer(window time.Duration) *Pacer { return &Pacer{window: window} }

func (p *Pacer) RecordRedo(bytes float64)       { p.record(&p.redoBytes, bytes) }
func (p *Pacer) RecordLRUFlush(pages float64)   { p.record(&p.lruFlushed, pages) }

func (p *Pacer) record(list *[]sample, amt float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	*list = append(*list, sample{at: now, amt: amt})
	p.prune(list, now)
}

func (p *Pacer) prune(list *[]sample, now time.Time) {
	cut := now.Add(-p.window)
	i := 0
	for i < len(*list) && (*list)[i].at.Before(cut) {
		i++
	}
	*list = (*list)[i:]
}

func (p *Pacer) rate(list []sample) float64 {
	if len(list) == 0 {
		return 0
	}
	var sum float64
	for _, s := range list {
		sum += s.amt
	}
	secs := p.window.Seconds()
	if secs == 0 {
		secs = 1
	}
	return sum / secs
}

// TargetFlushRate computes dirty_pages * redo_rate / log_capacity -
// lru_rate, floored at zero, exactly as specified.
func (p *Pacer) TargetFlushRate(dirtyPages int, logCapacity float64) float64 {
	p.mu.Lock()
	redoRate := p.rate(p.redoBytes)
	lruRate := p.rate(p.lruFlushed)
	p.mu.Unlock()
	if logCapacity <= 0 {
		return 0
	}
	target := float64(dirtyPages)*redoRate/logCapacity - lruRate
	if target < 0 {
		return 0
	}
	return target
}
