package fsp

import (
	"os"
	"sync"

	"github.com/RahulKushwaha/embedded-innodb/errs"
)

// Space is one tablespace file: a flat sequence of fixed PageSize pages.
// Grounded on basic.Space / basic.FileTableSpace in the teacher, collapsed
// into a single concrete type since the core has no secondary backends.
type Space struct {
	mu       sync.Mutex
	id       uint32
	name     string
	isSystem bool
	file     *os.File
	pageSize uint32
	pages    uint32 // current file size in pages
	deleted  bool
}

func openSpace(id uint32, name string, isSystem bool, path string, pageSize uint32) (*Space, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, errs.Wrap(errs.IOError, err, "open tablespace file")
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errs.Wrap(errs.IOError, err, "stat tablespace file")
	}
	return &Space{
		id:       id,
		name:     name,
		isSystem: isSystem,
		file:     f,
		pageSize: pageSize,
		pages:    uint32(fi.Size() / int64(pageSize)),
	}, nil
}

func (s *Space) ID() uint32   { return s.id }
func (s *Space) Name() string { return s.name }

// PageCount returns the number of pages currently materialized in the file.
func (s *Space) PageCount() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages
}

// Extend grows the tablespace file by n pages of zeroes, returning the page
// number of the first newly allocated page. This is the sole page-birth
// path described in spec §3 "Lifecycle".
func (s *Space) Extend(n uint32) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleted {
		return 0, errs.New(errs.TablespaceDeleted, "tablespace deleted")
	}
	first := s.pages
	newSize := int64(s.pages+n) * int64(s.pageSize)
	if err := s.file.Truncate(newSize); err != nil {
		return 0, errs.Wrap(errs.OutOfFileSpace, err, "extend tablespace")
	}
	s.pages += n
	return first, nil
}

// ReadPage reads exactly one PageSize page into raw (len(raw) == PageSize).
func (s *Space) ReadPage(pageNo uint32, raw []byte) error {
	s.mu.Lock()
	deleted := s.deleted
	s.mu.Unlock()
	if deleted {
		return errs.New(errs.TablespaceDeleted, "tablespace deleted")
	}
	off := int64(pageNo) * int64(s.pageSize)
	n, err := s.file.ReadAt(raw, off)
	if err != nil && n != len(raw) {
		return errs.Wrap(errs.IOError, err, "read page")
	}
	return nil
}

// WritePage writes one full page synchronously relative to the caller (the
// caller, buf's flush pipeline, decides fsync cadence).
func (s *Space) WritePage(pageNo uint32, raw []byte) error {
	s.mu.Lock()
	deleted := s.deleted
	s.mu.Unlock()
	if deleted {
		return errs.New(errs.TablespaceDeleted, "tablespace deleted")
	}
	off := int64(pageNo) * int64(s.pageSize)
	if _, err := s.file.WriteAt(raw, off); err != nil {
		return errs.Wrap(errs.IOError, err, "write page")
	}
	return nil
}

// Sync fsyncs the underlying file.
func (s *Space) Sync() error {
	if err := s.file.Sync(); err != nil {
		return errs.Wrap(errs.IOError, err, "fsync tablespace")
	}
	return nil
}

func (s *Space) markDeleted() {
	s.mu.Lock()
	s.deleted = true
	s.mu.Unlock()
}

func (s *Space) close() error { return s.file.Close() }
