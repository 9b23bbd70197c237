package mtr

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/RahulKushwaha/embedded-innodb/config"
	"github.com/RahulKushwaha/embedded-innodb/errs"
	"github.com/RahulKushwaha/embedded-innodb/logging"
)

// LogSys is the redo log buffer plus the on-disk ring of fixed-size files.
// The files hold the log as a plain byte ring: no per-file header, creation
// LSN or checkpoint record is written, and the checkpoint LSN is kept in
// memory only.
type LogSys struct {
	mu sync.Mutex

	dir       string
	fileSize  uint64
	fileCount int
	files     []*os.File

	buf        []byte // unflushed tail of the log, starting at flushedLSN
	lsn        uint64 // next byte offset to be assigned (== end of buffer)
	flushedLSN uint64
	checkpointLSN uint64

	flushAtCommit int
}

const logFileHeaderSize = 512 // first LSN handed out; nothing is written below it

// OpenLogSys creates or opens the redo log ring in dir.
func OpenLogSys(dir string, cfg *config.Config) (*LogSys, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errs.Wrap(errs.IOError, err, "create redo log dir")
	}
	ls := &LogSys{
		dir:           dir,
		fileSize:      cfg.RedoLogFileSize,
		fileCount:     cfg.RedoLogFileCount,
		flushAtCommit: cfg.FlushAtCommit,
		lsn:           logFileHeaderSize,
		flushedLSN:    logFileHeaderSize,
	}
	for i := 0; i < ls.fileCount; i++ {
		f, err := os.OpenFile(filepath.Join(dir, logFileName(i)), os.O_CREATE|os.O_RDWR, 0644)
		if err != nil {
			return nil, errs.Wrap(errs.IOError, err, "open redo log file")
		}
		if err := f.Truncate(int64(ls.fileSize)); err != nil {
			return nil, errs.Wrap(errs.IOError, err, "size redo log file")
		}
		ls.files = append(ls.files, f)
	}
	return ls, nil
}

func logFileName(i int) string { return "ib_logfile" + string(rune('0'+i)) }

// Append reserves a contiguous LSN range for data and copies it into the
// in-memory buffer. Returns [startLSN, endLSN).
func (ls *LogSys) Append(data []byte) (start, end uint64) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	start = ls.lsn
	ls.buf = append(ls.buf, data...)
	ls.lsn += uint64(len(data))
	end = ls.lsn
	return
}

// FlushTo writes the whole buffer if targetLSN is not yet flushed, and
// fsyncs the files only under policy 1; policies 0 and 2 write without
// fsync.
func (ls *LogSys) FlushTo(targetLSN uint64) error {
	ls.mu.Lock()
	if ls.flushedLSN >= targetLSN || len(ls.buf) == 0 {
		ls.mu.Unlock()
		return nil
	}
	data := ls.buf
	startOff := ls.flushedLSN
	ls.buf = nil
	ls.flushedLSN = ls.lsn
	ls.mu.Unlock()

	if err := ls.writeRing(startOff, data); err != nil {
		return err
	}
	if ls.flushAtCommit == 1 {
		for _, f := range ls.files {
			if err := f.Sync(); err != nil {
				return errs.Wrap(errs.IOError, err, "fsync redo log")
			}
		}
	}
	return nil
}

// writeRing writes data starting at absolute LSN startOff, wrapping across
// ring files as needed.
func (ls *LogSys) writeRing(startOff uint64, data []byte) error {
	capacity := ls.fileSize * uint64(ls.fileCount)
	pos := startOff % capacity
	for len(data) > 0 {
		fileIdx := int(pos / ls.fileSize)
		fileOff := int64(pos % ls.fileSize)
		room := ls.fileSize - uint64(fileOff)
		n := uint64(len(data))
		if n > room {
			n = room
		}
		if _, err := ls.files[fileIdx].WriteAt(data[:n], fileOff); err != nil {
			return errs.Wrap(errs.IOError, err, "write redo log")
		}
		data = data[n:]
		pos = (pos + n) % capacity
	}
	return nil
}

// LSN returns the next LSN that would be assigned.
func (ls *LogSys) LSN() uint64 {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.lsn
}

// Checkpoint records the given LSN (normally the minimum oldest-modification
// across buf's flush list) as the point recovery may resume from.
func (ls *LogSys) Checkpoint(lsn uint64) {
	ls.mu.Lock()
	ls.checkpointLSN = lsn
	ls.mu.Unlock()
	logging.For(logging.SysMtr).WithField("lsn", lsn).Info("checkpoint")
}

func (ls *LogSys) CheckpointLSN() uint64 {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.checkpointLSN
}

// ReadRange reads the [from, to) byte range of the redo stream back out,
// used by recovery to re-scan from the last checkpoint.
func (ls *LogSys) ReadRange(from, to uint64) ([]byte, error) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	capacity := ls.fileSize * uint64(ls.fileCount)
	out := make([]byte, 0, to-from)
	pos := from % capacity
	remaining := to - from
	for remaining > 0 {
		fileIdx := int(pos / ls.fileSize)
		fileOff := int64(pos % ls.fileSize)
		room := ls.fileSize - uint64(fileOff)
		n := remaining
		if n > room {
			n = room
		}
		chunk := make([]byte, n)
		if _, err := ls.files[fileIdx].ReadAt(chunk, fileOff); err != nil {
			return nil, errs.Wrap(errs.IOError, err, "read redo log")
		}
		out = append(out, chunk...)
		remaining -= n
		pos = (pos + n) % capacity
	}
	return out, nil
}

func (ls *LogSys) Close() error {
	var first error
	for _, f := range ls.files {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
