package lock

import (
	"testing"
	"time"

	"github.com/RahulKushwaha/embedded-innodb/config"
	"github.com/RahulKushwaha/embedded-innodb/errs"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.LockWaitTimeout = 200 * time.Millisecond
	cfg.DeadlockSearchDepth = 16
	return cfg
}

func TestSharedLocksCoexist(t *testing.T) {
	m := NewManager(testConfig())
	key := Key{Space: 1, Page: 2, Heap: 3}
	require.NoError(t, m.AcquireRecord(1, key, ModeS, 0))
	require.NoError(t, m.AcquireRecord(2, key, ModeS, 0))
}

func TestExclusiveBlocksThenGrantsOnRelease(t *testing.T) {
	m := NewManager(testConfig())
	key := Key{Space: 1, Page: 2, Heap: 3}
	require.NoError(t, m.AcquireRecord(1, key, ModeX, 0))

	done := make(chan error, 1)
	go func() { done <- m.AcquireRecord(2, key, ModeX, 0) }()

	time.Sleep(20 * time.Millisecond)
	m.ReleaseAll(1)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("waiter never granted after release")
	}
}

func TestGapLocksDoNotConflict(t *testing.T) {
	m := NewManager(testConfig())
	key := Key{Space: 1, Page: 2, Heap: 3}
	require.NoError(t, m.AcquireRecord(1, key, ModeX, FlagGap))
	require.NoError(t, m.AcquireRecord(2, key, ModeX, FlagGap))
}

func TestDeadlockDetected(t *testing.T) {
	m := NewManager(testConfig())
	keyA := Key{Space: 1, Page: 1, Heap: 1}
	keyB := Key{Space: 1, Page: 1, Heap: 2}

	require.NoError(t, m.AcquireRecord(1, keyA, ModeX, 0))
	require.NoError(t, m.AcquireRecord(2, keyB, ModeX, 0))

	errCh1 := make(chan error, 1)
	go func() { errCh1 <- m.AcquireRecord(1, keyB, ModeX, 0) }()
	time.Sleep(20 * time.Millisecond)

	err := m.AcquireRecord(2, keyA, ModeX, 0)

	gotDeadlock := errs.Is(err, errs.Deadlock)
	select {
	case e1 := <-errCh1:
		gotDeadlock = gotDeadlock || errs.Is(e1, errs.Deadlock)
	case <-time.After(time.Second):
	}
	require.True(t, gotDeadlock, "expected one of the two waiters to be aborted as a deadlock victim")
}

func TestLockTableFull(t *testing.T) {
	cfg := testConfig()
	cfg.LockTableCapacity = 1
	m := NewManager(cfg)
	require.NoError(t, m.AcquireRecord(1, Key{Heap: 1}, ModeS, 0))
	err := m.AcquireRecord(2, Key{Heap: 2}, ModeS, 0)
	require.True(t, errs.Is(err, errs.LockTableFull))
}

func TestTableIntentionLocks(t *testing.T) {
	m := NewManager(testConfig())
	require.NoError(t, m.AcquireTable(1, 42, TableIX))
	require.NoError(t, m.AcquireTable(2, 42, TableIX))

	done := make(chan error, 1)
	go func() { done <- m.AcquireTable(3, 42, TableX) }()
	time.Sleep(20 * time.Millisecond)

	select {
	case <-done:
		t.Fatal("table X should not have been granted while IX locks are held")
	default:
	}
	m.ReleaseAll(1)
	m.ReleaseAll(2)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("table X never granted after IX locks released")
	}
}
