package purge

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestViewRefreshUsesLowestActive(t *testing.T) {
	v := NewView()
	v.Refresh([]uint64{10, 5, 20}, 30)
	require.True(t, v.CanPurge(4))
	require.False(t, v.CanPurge(5))
	require.False(t, v.CanPurge(25))
}

func TestViewRefreshNoActiveUsesNextTrxID(t *testing.T) {
	v := NewView()
	v.Refresh(nil, 7)
	require.True(t, v.CanPurge(6))
	require.False(t, v.CanPurge(7))
}

func TestRunBatchNoRollbackSegmentsIsNoop(t *testing.T) {
	s := NewSystem(nil, NewView(), nil, nil, nil)
	n, err := s.RunBatch()
	require.NoError(t, err)
	require.Equal(t, 0, n)
}
