package fsp

import (
	"path/filepath"
	"sync"

	"github.com/RahulKushwaha/embedded-innodb/errs"
)

// Manager maps space IDs to open Space files, grounded on
// basic.SpaceManager's interface in the teacher.
type Manager struct {
	mu       sync.RWMutex
	dir      string
	pageSize uint32
	spaces   map[uint32]*Space
	nextID   uint32
	dw       *Doublewrite
}

func NewManager(dir string, pageSize uint32) *Manager {
	return &Manager{
		dir:      dir,
		pageSize: pageSize,
		spaces:   make(map[uint32]*Space),
		nextID:   1,
	}
}

// CreateSpace creates (or opens, if it already exists on disk) a tablespace
// file named "<name>.ibd" (or "ibdata1" for the system space).
func (m *Manager) CreateSpace(id uint32, name string, isSystem bool) (*Space, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.spaces[id]; ok {
		return nil, errs.New(errs.IOError, "space id already in use")
	}
	fname := name + ".ibd"
	if isSystem {
		fname = "ibdata1"
	}
	sp, err := openSpace(id, name, isSystem, filepath.Join(m.dir, fname), m.pageSize)
	if err != nil {
		return nil, err
	}
	m.spaces[id] = sp
	if id >= m.nextID {
		m.nextID = id + 1
	}
	if isSystem {
		m.dw = NewDoublewrite(sp, m.pageSize, 2)
		if end := m.dw.startPage + uint32(m.dw.blocks)*m.dw.slots; sp.PageCount() < end {
			if _, err := sp.Extend(end - sp.PageCount()); err != nil {
				return nil, err
			}
		}
	}
	return sp, nil
}

// AllocateSpaceID returns the next unused space id, for CreateSpace callers
// that don't have a catalog-assigned id of their own (out of scope per §1,
// but the core still needs to hand tests and callers an id).
func (m *Manager) AllocateSpaceID() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	return id
}

func (m *Manager) GetSpace(id uint32) (*Space, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sp, ok := m.spaces[id]
	if !ok {
		return nil, errs.New(errs.TablespaceDeleted, "unknown space")
	}
	return sp, nil
}

func (m *Manager) DropSpace(id uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sp, ok := m.spaces[id]
	if !ok {
		return errs.New(errs.TablespaceDeleted, "unknown space")
	}
	sp.markDeleted()
	err := sp.close()
	delete(m.spaces, id)
	return err
}

// Doublewrite returns the doublewrite staging area living in the system
// tablespace, or nil if no system space has been created yet.
func (m *Manager) Doublewrite() *Doublewrite {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dw
}

func (m *Manager) PageSize() uint32 { return m.pageSize }

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var firstErr error
	for _, sp := range m.spaces {
		if err := sp.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
