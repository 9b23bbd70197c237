package trx

import (
	"testing"

	"github.com/RahulKushwaha/embedded-innodb/config"
	"github.com/RahulKushwaha/embedded-innodb/mvcc"
	"github.com/stretchr/testify/require"
)

func TestBeginAssignsReadViewUnderRepeatableRead(t *testing.T) {
	m := NewManager(config.Default(), nil)
	t1 := m.Begin(mvcc.RepeatableRead)
	require.NotNil(t, t1.ReadView)
	require.True(t, t1.ReadView.IsVisible(t1.ID))
}

func TestBeginSkipsReadViewUnderReadCommitted(t *testing.T) {
	m := NewManager(config.Default(), nil)
	t1 := m.Begin(mvcc.ReadCommitted)
	require.Nil(t, t1.ReadView)
	rv := m.StatementReadView(t1)
	require.NotNil(t, rv)
}

func TestSavepointCapturesUndoCounts(t *testing.T) {
	m := NewManager(config.Default(), nil)
	t1 := m.Begin(mvcc.RepeatableRead)
	sp := t1.Savepoint("s1")
	require.Equal(t, 0, sp.InsertUndoNo)
	require.Equal(t, 0, sp.UpdateUndoNo)
}

func TestCommitRemovesFromActiveSet(t *testing.T) {
	m := NewManager(config.Default(), nil)
	t1 := m.Begin(mvcc.RepeatableRead)
	require.Contains(t, m.ActiveIDs(), t1.ID)
	m.Commit(t1)
	require.NotContains(t, m.ActiveIDs(), t1.ID)
	require.Equal(t, Committed, t1.Status)
}
