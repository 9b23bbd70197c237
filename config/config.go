// Package config defines the engine-internal tuning knobs of the storage
// core and how they map onto an ini.v1 file, mirroring the teacher's
// server/conf/config.go [innodb_*] keys. Loading an actual file from disk,
// like the rest of CLI/config plumbing, is an external concern (see
// SPEC_FULL.md §1); this package only owns the knobs themselves.
package config

import (
	"time"

	"gopkg.in/ini.v1"
)

// Config holds every tunable the core components read at construction time.
type Config struct {
	PageSize             uint32        // P, bytes per page
	BufferPoolPages      uint32        // total frames in the buffer pool
	YoungListPercent     int           // LRU young-sublist percentage
	OldBlocksTime        time.Duration // grace period before a block may be promoted from old to young
	DoublewriteExtents   int           // extents reserved for the doublewrite staging area
	RedoLogFileSize      uint64        // bytes per redo log file in the ring
	RedoLogFileCount     int           // number of files in the ring
	FlushAtCommit        int           // 0 = none, 1 = write+fsync, 2 = write only
	CheckpointInterval   time.Duration // time between automatic checkpoints
	LockWaitTimeout      time.Duration
	DeadlockSearchDepth  int
	LockTableCapacity    int // bounded lock-pool arena size, see LOCK_TABLE_FULL
	PurgeBatchSize       int
	RollbackSegmentCount int // rseg slots, bounded (e.g. 256) per §3
}

// Default returns the engine's hard-coded defaults, usable without any file
// on disk — the numbers mirror the teacher's innodb_* ini defaults.
func Default() *Config {
	return &Config{
		PageSize:             16 * 1024,
		BufferPoolPages:      8192,
		YoungListPercent:     63,
		OldBlocksTime:        1000 * time.Millisecond,
		DoublewriteExtents:   2,
		RedoLogFileSize:      48 * 1024 * 1024,
		RedoLogFileCount:     2,
		FlushAtCommit:        1,
		CheckpointInterval:   7 * time.Second,
		LockWaitTimeout:      50 * time.Second,
		DeadlockSearchDepth:  200,
		LockTableCapacity:    1 << 20,
		PurgeBatchSize:       20,
		RollbackSegmentCount: 256,
	}
}

// LoadINI overlays ini keys under the [innodb] section onto a copy of base.
func LoadINI(base *Config, file *ini.File) *Config {
	cfg := *base
	sec := file.Section("innodb")
	if v, err := sec.Key("buffer_pool_pages").Uint(); err == nil && v > 0 {
		cfg.BufferPoolPages = uint32(v)
	}
	if v, err := sec.Key("page_size").Uint(); err == nil && v > 0 {
		cfg.PageSize = uint32(v)
	}
	if v, err := sec.Key("flush_log_at_trx_commit").Int(); err == nil {
		cfg.FlushAtCommit = v
	}
	if v, err := sec.Key("lock_wait_timeout").Duration(); err == nil && v > 0 {
		cfg.LockWaitTimeout = v
	}
	if v, err := sec.Key("purge_batch_size").Int(); err == nil && v > 0 {
		cfg.PurgeBatchSize = v
	}
	if v, err := sec.Key("rollback_segments").Int(); err == nil && v > 0 {
		cfg.RollbackSegmentCount = v
	}
	return &cfg
}
