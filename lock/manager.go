package lock

import (
	"sync"
	"time"

	"github.com/RahulKushwaha/embedded-innodb/config"
	"github.com/RahulKushwaha/embedded-innodb/errs"
)

// request is one transaction's claim on a Key, granted or still waiting.
// Grounded on LockRequest of manager/lock_manager.go (TxID/Granted/WaitChan
// naming kept, generalized with Flags and a buffered done channel that
// carries either a nil grant or a deadlock/abort error).
type request struct {
	trx     uint64
	mode    Mode
	flags   Flags
	granted bool
	done    chan error
}

func (r *request) conflicts(o *request) bool {
	if r.trx == o.trx {
		return false
	}
	// Gap locks never conflict with each other, including insert-intention
	// gap locks against ordinary gap locks — InnoDB's documented exception
	// that lets concurrent inserters queue into the same gap (spec §4.6).
	if r.flags.isGapOnly() && o.flags.isGapOnly() {
		return false
	}
	recordConflict := r.coversRecordOf(o) && o.coversRecordOf(r) && !compatibleMode(r.mode, o.mode)
	gapConflict := r.flags.coversGap() && o.flags.coversGap() && !(r.flags.isGapOnly() || o.flags.isGapOnly()) && !compatibleMode(r.mode, o.mode)
	return recordConflict || gapConflict
}

// coversRecordOf reports whether r's scope includes the record itself (as
// opposed to only the preceding gap) for the purpose of conflicting with o.
func (r *request) coversRecordOf(o *request) bool { return r.flags.coversRecord() }

func compatibleMode(a, b Mode) bool { return a == ModeS && b == ModeS }

// Manager is the record and table lock table plus wait-for graph, grounded
// on LockManager of manager/lock_manager.go (lockTable/waitGraph/txnLocks
// shape) generalized with the flag-aware conflict rule above and
// synchronous (not ticker-driven) deadlock detection at wait time, which
// catches a cycle before any goroutine blocks rather than up to a tick
// period later.
type Manager struct {
	mu sync.Mutex

	cfg *config.Config

	records map[Key][]*request
	tables  map[uint64][]*tableRequest

	waitFor map[uint64]map[uint64]bool // trx -> trxs it is currently blocked behind
	held    map[uint64]int             // trx -> count of locks currently granted to it, used as deadlock-victim weight
	total   int
}

type tableRequest struct {
	trx     uint64
	mode    TableMode
	granted bool
	done    chan error
}

func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		cfg:     cfg,
		records: make(map[Key][]*request),
		tables:  make(map[uint64][]*tableRequest),
		waitFor: make(map[uint64]map[uint64]bool),
		held:    make(map[uint64]int),
	}
}

// AcquireRecord requests a record lock, blocking until granted, timed out,
// or chosen as a deadlock victim.
func (m *Manager) AcquireRecord(trx uint64, key Key, mode Mode, flags Flags) error {
	m.mu.Lock()
	if m.total >= m.cfg.LockTableCapacity {
		m.mu.Unlock()
		return errs.New(errs.LockTableFull, "lock table capacity exhausted")
	}

	q := m.records[key]
	req := &request{trx: trx, mode: mode, flags: flags}
	conflictors := map[uint64]bool{}
	for _, r := range q {
		if !r.granted {
			continue
		}
		if req.conflicts(r) {
			conflictors[r.trx] = true
		}
	}
	if len(conflictors) == 0 {
		req.granted = true
		m.records[key] = append(q, req)
		m.total++
		m.held[trx]++
		m.mu.Unlock()
		return nil
	}

	for holder := range conflictors {
		m.addWaitEdge(trx, holder)
	}
	if victim, cyclic := m.detectDeadlock(trx); cyclic {
		if victim == trx {
			m.removeWaitEdgesFrom(trx)
			m.mu.Unlock()
			return errs.New(errs.Deadlock, "deadlock detected, this transaction chosen as the lighter victim")
		}
		m.abortWaiter(victim)
	}

	req.done = make(chan error, 1)
	m.records[key] = append(q, req)
	m.total++
	timeout := m.cfg.LockWaitTimeout
	m.mu.Unlock()

	select {
	case err := <-req.done:
		return err
	case <-time.After(timeout):
		m.mu.Lock()
		m.cancelWaiting(key, req)
		m.mu.Unlock()
		return errs.New(errs.LockWaitTimeout, "lock wait timed out")
	}
}

// AcquireTable requests a table-level intention lock; same shape as
// AcquireRecord but over the coarser table compatibility matrix.
func (m *Manager) AcquireTable(trx uint64, tableID uint64, mode TableMode) error {
	m.mu.Lock()
	q := m.tables[tableID]
	conflict := false
	for _, r := range q {
		if r.granted && r.trx != trx && !tableCompatible(r.mode, mode) {
			conflict = true
			break
		}
	}
	req := &tableRequest{trx: trx, mode: mode}
	if !conflict {
		req.granted = true
		m.tables[tableID] = append(q, req)
		m.mu.Unlock()
		return nil
	}
	req.done = make(chan error, 1)
	m.tables[tableID] = append(q, req)
	timeout := m.cfg.LockWaitTimeout
	m.mu.Unlock()

	select {
	case err := <-req.done:
		return err
	case <-time.After(timeout):
		return errs.New(errs.LockWaitTimeout, "table lock wait timed out")
	}
}

// ReleaseAll drops every lock trx holds (record and table), then wakes any
// waiter whose conflict set has cleared. Called on commit and rollback
// (spec §4.6 "release-and-wake-waiters").
func (m *Manager) ReleaseAll(trx uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, q := range m.records {
		kept := q[:0]
		for _, r := range q {
			if r.granted && r.trx == trx {
				m.total--
				m.held[trx]--
				continue
			}
			kept = append(kept, r)
		}
		m.records[key] = kept
		m.wakeEligible(key)
	}
	for id, q := range m.tables {
		kept := q[:0]
		for _, r := range q {
			if r.granted && r.trx == trx {
				continue
			}
			kept = append(kept, r)
		}
		m.tables[id] = kept
		m.wakeEligibleTable(id)
	}
	delete(m.waitFor, trx)
	for _, set := range m.waitFor {
		delete(set, trx)
	}
	delete(m.held, trx)
}

// wakeEligible grants as many queued waiters on key as no longer conflict
// with anything still granted, in FIFO order, stopping the scan for a
// waiter only while it's genuinely blocked (gap waiters behind it may still
// be grantable, so the scan does not stop at the first unmet waiter).
func (m *Manager) wakeEligible(key Key) {
	q := m.records[key]
	for _, r := range q {
		if r.granted {
			continue
		}
		blocked := false
		for _, o := range q {
			if o.granted && r.conflicts(o) {
				blocked = true
				break
			}
		}
		if !blocked {
			r.granted = true
			m.total++
			m.held[r.trx]++
			m.removeWaitEdgesFrom(r.trx)
			r.done <- nil
		}
	}
}

func (m *Manager) wakeEligibleTable(id uint64) {
	q := m.tables[id]
	for _, r := range q {
		if r.granted {
			continue
		}
		blocked := false
		for _, o := range q {
			if o.granted && o.trx != r.trx && !tableCompatible(o.mode, r.mode) {
				blocked = true
				break
			}
		}
		if !blocked {
			r.granted = true
			r.done <- nil
		}
	}
}

func (m *Manager) cancelWaiting(key Key, req *request) {
	q := m.records[key]
	for i, r := range q {
		if r == req {
			m.records[key] = append(q[:i], q[i+1:]...)
			m.total--
			break
		}
	}
	m.removeWaitEdgesFrom(req.trx)
}

func (m *Manager) abortWaiter(trx uint64) {
	type hit struct {
		key Key
		r   *request
	}
	var hits []hit
	for key, q := range m.records {
		for _, r := range q {
			if !r.granted && r.trx == trx {
				hits = append(hits, hit{key, r})
			}
		}
	}
	for _, h := range hits {
		select {
		case h.r.done <- errs.New(errs.Deadlock, "deadlock detected, this transaction chosen as the lighter victim"):
		default:
		}
		m.cancelWaiting(h.key, h.r)
	}
}

func (m *Manager) addWaitEdge(from, to uint64) {
	set := m.waitFor[from]
	if set == nil {
		set = make(map[uint64]bool)
		m.waitFor[from] = set
	}
	set[to] = true
}

func (m *Manager) removeWaitEdgesFrom(trx uint64) {
	delete(m.waitFor, trx)
}
