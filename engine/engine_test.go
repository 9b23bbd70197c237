package engine

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/RahulKushwaha/embedded-innodb/config"
	"github.com/RahulKushwaha/embedded-innodb/mvcc"
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

func keyFor(k uint32) [][]byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, k)
	return [][]byte{b}
}

func rowFields(k uint32, v string) []page.Field {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, k)
	return []page.Field{{Data: b}, {Data: []byte(v)}}
}

func setupEngine(t *testing.T) (*Engine, *Table) {
	t.Helper()
	cfg := config.Default()
	cfg.PageSize = 4096
	cfg.RollbackSegmentCount = 4
	e, _, err := Open(t.TempDir(), cfg)
	require.NoError(t, err)
	tbl, err := e.CreateTable(1, 1, true, byteCmp)
	require.NoError(t, err)
	return e, tbl
}

func TestInsertReadCommit(t *testing.T) {
	e, tbl := setupEngine(t)

	t1 := e.Begin(mvcc.RepeatableRead)
	require.NoError(t, e.InsertRow(t1, tbl, keyFor(5), rowFields(5, "five")))
	fields, found, err := e.ReadRow(t1, tbl, keyFor(5))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "five", string(fields[1].Data))
	e.Commit(t1)

	t2 := e.Begin(mvcc.ReadCommitted)
	fields, found, err = e.ReadRow(t2, tbl, keyFor(5))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "five", string(fields[1].Data))
	e.Commit(t2)
}

func TestUncommittedInsertInvisibleToOtherRepeatableReadView(t *testing.T) {
	e, tbl := setupEngine(t)

	t1 := e.Begin(mvcc.RepeatableRead)
	t2 := e.Begin(mvcc.RepeatableRead)

	require.NoError(t, e.InsertRow(t1, tbl, keyFor(7), rowFields(7, "seven")))

	_, found, err := e.ReadRow(t2, tbl, keyFor(7))
	require.NoError(t, err)
	require.False(t, found)

	e.Commit(t1)
	e.Commit(t2)
}

func TestRollbackRemovesInsertedRow(t *testing.T) {
	e, tbl := setupEngine(t)

	t1 := e.Begin(mvcc.RepeatableRead)
	require.NoError(t, e.InsertRow(t1, tbl, keyFor(9), rowFields(9, "nine")))
	require.NoError(t, e.Rollback(t1))

	t2 := e.Begin(mvcc.RepeatableRead)
	_, found, err := e.ReadRow(t2, tbl, keyFor(9))
	require.NoError(t, err)
	require.False(t, found)
	e.Commit(t2)
}

func TestUpdateThenRollbackRestoresOldValue(t *testing.T) {
	e, tbl := setupEngine(t)

	setup := e.Begin(mvcc.RepeatableRead)
	require.NoError(t, e.InsertRow(setup, tbl, keyFor(3), rowFields(3, "orig")))
	e.Commit(setup)

	t1 := e.Begin(mvcc.RepeatableRead)
	require.NoError(t, e.UpdateRow(t1, tbl, keyFor(3), rowFields(3, "changed")))
	fields, found, err := e.ReadRow(t1, tbl, keyFor(3))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "changed", string(fields[1].Data))

	require.NoError(t, e.Rollback(t1))

	t2 := e.Begin(mvcc.RepeatableRead)
	fields, found, err = e.ReadRow(t2, tbl, keyFor(3))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "orig", string(fields[1].Data))
	e.Commit(t2)
}

func TestDeleteMarkedRowInvisibleAfterCommit(t *testing.T) {
	e, tbl := setupEngine(t)

	setup := e.Begin(mvcc.RepeatableRead)
	require.NoError(t, e.InsertRow(setup, tbl, keyFor(11), rowFields(11, "eleven")))
	e.Commit(setup)

	t1 := e.Begin(mvcc.RepeatableRead)
	require.NoError(t, e.DeleteRow(t1, tbl, keyFor(11)))
	e.Commit(t1)

	t2 := e.Begin(mvcc.RepeatableRead)
	_, found, err := e.ReadRow(t2, tbl, keyFor(11))
	require.NoError(t, err)
	require.False(t, found)
	e.Commit(t2)
}

func TestDeleteMarkedRowStillVisibleToOlderReadView(t *testing.T) {
	e, tbl := setupEngine(t)

	setup := e.Begin(mvcc.RepeatableRead)
	require.NoError(t, e.InsertRow(setup, tbl, keyFor(13), rowFields(13, "thirteen")))
	e.Commit(setup)

	t1 := e.Begin(mvcc.RepeatableRead) // opens its read view before the delete commits
	t2 := e.Begin(mvcc.RepeatableRead)
	require.NoError(t, e.DeleteRow(t2, tbl, keyFor(13)))
	e.Commit(t2)

	fields, found, err := e.ReadRow(t1, tbl, keyFor(13))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "thirteen", string(fields[1].Data))
	e.Commit(t1)
}

func TestPurgeBatchReclaimsCommittedDeleteMark(t *testing.T) {
	e, tbl := setupEngine(t)

	setup := e.Begin(mvcc.RepeatableRead)
	require.NoError(t, e.InsertRow(setup, tbl, keyFor(17), rowFields(17, "seventeen")))
	e.Commit(setup)

	t1 := e.Begin(mvcc.RepeatableRead)
	require.NoError(t, e.DeleteRow(t1, tbl, keyFor(17)))
	e.Commit(t1)

	n, err := e.RunPurgeBatch()
	require.NoError(t, err)
	require.GreaterOrEqual(t, n, 1)
}

func TestCursorScanSkipsInvisibleInsert(t *testing.T) {
	e, tbl := setupEngine(t)

	setup := e.Begin(mvcc.RepeatableRead)
	require.NoError(t, e.InsertRow(setup, tbl, keyFor(1), rowFields(1, "a")))
	require.NoError(t, e.InsertRow(setup, tbl, keyFor(2), rowFields(2, "b")))
	e.Commit(setup)

	reader := e.Begin(mvcc.RepeatableRead)
	writer := e.Begin(mvcc.RepeatableRead)
	require.NoError(t, e.InsertRow(writer, tbl, keyFor(3), rowFields(3, "c")))

	cur, err := e.OpenCursor(reader, tbl, nil)
	require.NoError(t, err)
	var seen []string
	for {
		fields, ok, err := cur.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		seen = append(seen, string(fields[1].Data))
	}
	cur.Close()
	require.Equal(t, []string{"a", "b"}, seen)

	e.Commit(writer)
	e.Commit(reader)
}

func TestSavepointRollback(t *testing.T) {
	e, tbl := setupEngine(t)

	t1 := e.Begin(mvcc.RepeatableRead)
	require.NoError(t, e.InsertRow(t1, tbl, keyFor(21), rowFields(21, "a")))
	sp := t1.Savepoint("s1")
	require.NoError(t, e.InsertRow(t1, tbl, keyFor(22), rowFields(22, "b")))

	require.NoError(t, e.RollbackToSavepoint(t1, sp))

	_, found, err := e.ReadRow(t1, tbl, keyFor(22))
	require.NoError(t, err)
	require.False(t, found)
	fields, found, err := e.ReadRow(t1, tbl, keyFor(21))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "a", string(fields[1].Data))

	e.Commit(t1)
}
