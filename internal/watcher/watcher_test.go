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

func TestFiresOnWatchedFileOnly(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "jobs.json")

	var calls atomic.Int32
	w, err := New([]string{watched}, func() { calls.Add(1) }, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o600))
	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, calls.Load())

	// Replace by rename, the way the local store saves.
	tmp := filepath.Join(dir, ".tmp-jobs.json")
	require.NoError(t, os.WriteFile(tmp, []byte("[]"), 0o600))
	require.NoError(t, os.Rename(tmp, watched))

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load(), "burst should be debounced")
}

func TestPoller(t *testing.T) {
	var calls atomic.Int32
	w := NewPoller(10*time.Millisecond, func() { calls.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.NoError(t, w.Close())
}
