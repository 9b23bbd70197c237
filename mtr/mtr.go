package mtr

import (
	"github.com/RahulKushwaha/embedded-innodb/buf"
	"github.com/RahulKushwaha/embedded-innodb/logging"
)

type memoEntry struct {
	block *buf.Block
	mode  buf.LatchMode
}

// Mtr is a per-operation mini-transaction: a memo of page latches held (in
// acquisition order) plus an in-memory redo buffer, per spec §3/§4.2.
type Mtr struct {
	pool *buf.Pool
	log  *LogSys

	memo    []memoEntry
	records [][]byte // framed redo records appended by LogWrite
	pages   map[buf.LatchMode]struct{}

	logMode LogMode
}

// LogMode mirrors MTR_LOG_ALL / MTR_LOG_NONE / MTR_LOG_NO_REDO of spec §4.2.
type LogMode int

const (
	LogAll LogMode = iota
	LogNone
	LogNoRedo
)

// Start initializes an empty mtr bound to a buffer pool and log system.
func Start(pool *buf.Pool, log *LogSys) *Mtr {
	return &Mtr{pool: pool, log: log, logMode: LogAll}
}

// SetLogMode overrides the default MTR_LOG_ALL mode.
func (m *Mtr) SetLogMode(mode LogMode) { m.logMode = mode }

// Pool returns the buffer pool this mtr fetches pages through, for callers
// that need a pool handle without a page already latched (e.g. undo record
// reads that go through RollbackSegment.ReadAt).
func (m *Mtr) Pool() *buf.Pool { return m.pool }

// Latch acquires block's own latch in the given mode and records it in the
// memo, in acquisition order — required so Commit can release in reverse
// order (spec §4.2 "mtr.latch(block, mode)"). A block the memo already holds
// under X, or under the requested mode, is returned without being latched
// again.
func (m *Mtr) Latch(block *buf.Block, mode buf.LatchMode) *buf.Block {
	for _, e := range m.memo {
		if e.block == block && (e.mode == buf.ModeX || e.mode == mode) {
			return block
		}
	}
	switch mode {
	case buf.ModeS:
		block.RLock()
	case buf.ModeX:
		block.Lock()
	}
	m.memo = append(m.memo, memoEntry{block: block, mode: mode})
	return block
}

// Fetch fetches (space,page) from the pool and latches it via Latch in one
// step — the common case of a B-tree descent acquiring the next page.
func (m *Mtr) Fetch(space, pageNo uint32, mode buf.LatchMode) (*buf.Block, error) {
	b, err := m.pool.Get(space, pageNo, buf.ModeNone)
	if err != nil {
		return nil, err
	}
	return m.Latch(b, mode), nil
}

// AdoptLatch records a block the caller has already latched through some
// other path (e.g. pool.Get with a non-None mode, or pool.TryGet) into this
// mtr's memo, so Commit still releases it in the right order.
func (m *Mtr) AdoptLatch(block *buf.Block, mode buf.LatchMode) {
	m.memo = append(m.memo, memoEntry{block: block, mode: mode})
}

// ReleaseEarly unlatches and drops block from the memo before Commit, used
// by B-tree descent's latch coupling (spec §4.4): a parent page's S-latch is
// released as soon as the child is S-latched, rather than held to the end
// of the mtr.
func (m *Mtr) ReleaseEarly(block *buf.Block, mode buf.LatchMode) {
	for i, e := range m.memo {
		if e.block == block && e.mode == mode {
			m.pool.Release(e.block, e.mode)
			m.memo = append(m.memo[:i], m.memo[i+1:]...)
			return
		}
	}
}

// LogWrite appends a typed redo record for a page mutation the caller has
// already applied to the block's in-memory bytes (spec §4.2: the mtr logs
// after mutating, both happen before commit).
func (m *Mtr) LogWrite(block *buf.Block, typ RecType, payload []byte) {
	if m.logMode != LogAll {
		return
	}
	rec := EncodeRecordFramed(typ, block.Space, block.PageNo, payload)
	m.records = append(m.records, rec)
}

// HasLogged reports whether this mtr produced any redo — a pure reader mtr
// (e.g. a cursor descent) logs nothing and Commit degenerates to releasing
// latches (spec §4.2).
func (m *Mtr) HasLogged() bool { return len(m.records) > 0 }

// Commit atomically appends the mtr's redo to the log, marks every
// x-latched modified block dirty at [start_lsn, end_lsn), and releases
// every latch in reverse acquisition order (spec §4.2, §5 "combined with
// the hierarchy guarantees deadlock-freedom").
func (m *Mtr) Commit() (startLSN, endLSN uint64) {
	if len(m.records) > 0 {
		body := frameGroup(m.records)
		startLSN, endLSN = m.log.Append(body)
		for _, e := range m.memo {
			if e.mode == buf.ModeX {
				m.pool.MarkDirty(e.block, startLSN, endLSN)
			}
		}
		if m.logMode == LogAll {
			logging.For(logging.SysMtr).WithField("lsn", endLSN).WithField("n", len(m.records)).Debug("mtr committed")
		}
	}
	m.releaseAll()
	return
}

// Discard releases latches without writing any redo — used on pure read
// paths and on abort of the current operation (spec §7 propagation policy).
func (m *Mtr) Discard() { m.releaseAll() }

func (m *Mtr) releaseAll() {
	for i := len(m.memo) - 1; i >= 0; i-- {
		m.pool.Release(m.memo[i].block, m.memo[i].mode)
	}
	m.memo = nil
}

// frameGroup wraps several single-page records with a MULTI_REC_END
// terminator if there is more than one, or ORs SingleRecFlag into the sole
// record's type byte otherwise (spec §3 "A MULTI_REC marker groups several
// single-page records into an atomic unit").
func frameGroup(records [][]byte) []byte {
	if len(records) == 1 {
		out := append([]byte(nil), records[0]...)
		out[0] |= byte(SingleRecFlag)
		return out
	}
	var out []byte
	for _, r := range records {
		out = append(out, r...)
	}
	out = append(out, EncodeRecordFramed(RecMultiRecEnd, 0, 0, nil)...)
	return out
}
