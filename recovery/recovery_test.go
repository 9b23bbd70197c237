package recovery

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArchiveRoundTrip(t *testing.T) {
	original := []byte("redo log ring segment bytes, repeated repeated repeated")
	archived := ArchiveSegment(original)
	restored, err := RestoreSegment(archived)
	require.NoError(t, err)
	require.Equal(t, original, restored)
}

func TestIsPageImageRecord(t *testing.T) {
	require.True(t, isPageImageRecord(0x80|9)) // RecRecInsert with SingleRecFlag set
	require.False(t, isPageImageRecord(200))
}
