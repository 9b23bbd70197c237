package btree

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/RahulKushwaha/embedded-innodb/buf"
	"github.com/RahulKushwaha/embedded-innodb/config"
	"github.com/RahulKushwaha/embedded-innodb/errs"
	"github.com/RahulKushwaha/embedded-innodb/fsp"
	"github.com/RahulKushwaha/embedded-innodb/mtr"
	"github.com/RahulKushwaha/embedded-innodb/page"
	"github.com/stretchr/testify/require"
)

func byteCmp(a, b [][]byte) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := bytes.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

func setupIndex(t *testing.T, unique bool) *Index {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.PageSize = 4096
	spaces := fsp.NewManager(dir, cfg.PageSize)
	sp, err := spaces.CreateSpace(spaces.AllocateSpaceID(), "test", true)
	require.NoError(t, err)
	pool := buf.New(cfg, spaces)
	logSys, err := mtr.OpenLogSys(dir+"/log", cfg)
	require.NoError(t, err)

	rootPageNo, err := sp.Extend(1)
	require.NoError(t, err)
	require.NoError(t, CreateRoot(sp.ID(), rootPageNo, 1, false, pool, logSys))

	return Open(sp.ID(), rootPageNo, 1, 1, true, unique, false, byteCmp, pool, logSys, spaces)
}

func recFor(k uint32, v string) *page.Record {
	kb := make([]byte, 4)
	binary.BigEndian.PutUint32(kb, k)
	return &page.Record{
		Type:   page.RecordOrdinary,
		Fields: []page.Field{{Data: kb}, {Data: []byte(v)}},
	}
}

func keyFor(k uint32) [][]byte {
	kb := make([]byte, 4)
	binary.BigEndian.PutUint32(kb, k)
	return [][]byte{kb}
}

func TestInsertAndGet(t *testing.T) {
	ix := setupIndex(t, true)

	m := mtr.Start(ix.pool, ix.log)
	require.NoError(t, Insert(ix, recFor(10, "ten"), m))
	require.NoError(t, Insert(ix, recFor(5, "five"), m))
	require.NoError(t, Insert(ix, recFor(20, "twenty"), m))
	m.Commit()

	m2 := mtr.Start(ix.pool, ix.log)
	rec, ok, err := Get(ix, keyFor(5), m2)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "five", string(rec.Fields[1].Data))
	m2.Discard()

	m3 := mtr.Start(ix.pool, ix.log)
	_, ok, err = Get(ix, keyFor(999), m3)
	require.NoError(t, err)
	require.False(t, ok)
	m3.Discard()
}

func TestInsertDuplicateRejected(t *testing.T) {
	ix := setupIndex(t, true)
	m := mtr.Start(ix.pool, ix.log)
	require.NoError(t, Insert(ix, recFor(1, "a"), m))
	m.Commit()

	m2 := mtr.Start(ix.pool, ix.log)
	err := Insert(ix, recFor(1, "b"), m2)
	require.Error(t, err)
	require.Equal(t, errs.DuplicateKey, errs.Of(err))
}

func TestSplitAcrossManyInserts(t *testing.T) {
	ix := setupIndex(t, true)
	const n = 400
	m := mtr.Start(ix.pool, ix.log)
	for i := uint32(0); i < n; i++ {
		require.NoError(t, Insert(ix, recFor(i, "value-value-value-value"), m))
	}
	m.Commit()

	for _, k := range []uint32{0, 1, 199, 200, n - 1} {
		mg := mtr.Start(ix.pool, ix.log)
		rec, ok, err := Get(ix, keyFor(k), mg)
		require.NoError(t, err)
		require.True(t, ok, "key %d should be present after split", k)
		require.Equal(t, "value-value-value-value", string(rec.Fields[1].Data))
		mg.Discard()
	}
}

func TestMarkDeleteThenPhysicalDelete(t *testing.T) {
	ix := setupIndex(t, true)
	m := mtr.Start(ix.pool, ix.log)
	require.NoError(t, Insert(ix, recFor(1, "a"), m))
	require.NoError(t, Insert(ix, recFor(2, "b"), m))
	m.Commit()

	m2 := mtr.Start(ix.pool, ix.log)
	rec, err := MarkDelete(ix, keyFor(1), m2)
	require.NoError(t, err)
	require.True(t, rec.DeleteMarked())
	m2.Commit()

	// still visible physically (mark-and-sweep) until purge removes it
	m3 := mtr.Start(ix.pool, ix.log)
	rec2, ok, err := Get(ix, keyFor(1), m3)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, rec2.DeleteMarked())
	m3.Discard()

	m4 := mtr.Start(ix.pool, ix.log)
	require.NoError(t, PhysicalDelete(ix, keyFor(1), m4))
	m4.Commit()

	m5 := mtr.Start(ix.pool, ix.log)
	_, ok, err = Get(ix, keyFor(1), m5)
	require.NoError(t, err)
	require.False(t, ok)
	m5.Discard()
}

func TestPersistentCursorRestoreOptimistic(t *testing.T) {
	ix := setupIndex(t, true)
	m := mtr.Start(ix.pool, ix.log)
	require.NoError(t, Insert(ix, recFor(1, "a"), m))
	require.NoError(t, Insert(ix, recFor(2, "b"), m))
	m.Commit()

	m2 := mtr.Start(ix.pool, ix.log)
	c, err := Search(ix, keyFor(1), page.ModeGE, buf.ModeS, m2)
	require.NoError(t, err)
	var pc PersistentCursor
	pc.Store(c)
	m2.Discard()

	m3 := mtr.Start(ix.pool, ix.log)
	c2, optimistic, err := pc.Restore(buf.ModeS, ix.pool, m3)
	require.NoError(t, err)
	require.True(t, optimistic)
	require.Equal(t, "a", string(c2.Page.Records[c2.Pos].Fields[1].Data))
	m3.Discard()
}
