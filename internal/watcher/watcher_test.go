package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, dbPath string, calls *atomic.Int32) *DatabaseWatcher {
	t.Helper()
	w := New(dbPath, func(ctx context.Context) { calls.Add(1) }, WithDebounce(100*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, w.Start(ctx))
	t.Cleanup(w.Stop)
	return w
}

func TestDatabaseWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "KoboReader.sqlite")
	require.NoError(t, os.WriteFile(dbPath, []byte("v0"), 0644))

	var calls atomic.Int32
	startWatcher(t, dbPath, &calls)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(dbPath, []byte("v1"), 0644))
		time.Sleep(10 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 20*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDatabaseWatcher_WalCompanionTriggers(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "KoboReader.sqlite")

	var calls atomic.Int32
	startWatcher(t, dbPath, &calls)

	require.NoError(t, os.WriteFile(dbPath+"-wal", []byte("wal"), 0644))

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 20*time.Millisecond)
}

func TestDatabaseWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "KoboReader.sqlite")

	var calls atomic.Int32
	startWatcher(t, dbPath, &calls)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "BookReader.sqlite"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "KoboReader.sqlite.bak"), []byte("x"), 0644))

	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestDatabaseWatcher_StopDropsPendingTrigger(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "KoboReader.sqlite")

	var calls atomic.Int32
	w := startWatcher(t, dbPath, &calls)

	require.NoError(t, os.WriteFile(dbPath, []byte("v1"), 0644))
	time.Sleep(30 * time.Millisecond)
	w.Stop()

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
	assert.False(t, w.IsRunning())
}

func TestDatabaseWatcher_MissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing", "KoboReader.sqlite"), nil)
	err := w.Start(context.Background())
	assert.ErrorIs(t, err, ErrNoDirectory)
	assert.False(t, w.IsRunning())
}

func TestDatabaseWatcher_ContextCancelStops(t *testing.T) {
	dir := t.TempDir()
	w := New(filepath.Join(dir, "KoboReader.sqlite"), nil)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	assert.True(t, w.IsRunning())

	cancel()
	assert.Eventually(t, func() bool { return !w.IsRunning() }, time.Second, 10*time.Millisecond)
}
