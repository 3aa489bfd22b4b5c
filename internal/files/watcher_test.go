package files

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const testDebounce = 100 * time.Millisecond

// startWatcher runs w until the test ends and waits for Run to return.
func startWatcher(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop")
		}
	})

	// Let Run register the directory before the test writes files.
	time.Sleep(50 * time.Millisecond)
}

func TestWatcher_DebouncesBurst(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	var calls atomic.Int32
	w := NewWatcher(dir, testDebounce, func(context.Context) error {
		calls.Add(1)
		return nil
	}, nil)

	t.Run("burst", func(t *testing.T) {
		startWatcher(t, w)

		for _, name := range []string{"a.csv", "b.csv", "c.xlsx"} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
		}

		require.Eventually(t, func() bool { return calls.Load() == 1 }, 3*time.Second, 10*time.Millisecond)
		time.Sleep(3 * testDebounce)
		assert.Equal(t, int32(1), calls.Load())

		stats := w.Stats()
		assert.Equal(t, 1, stats.Reloads)
		assert.GreaterOrEqual(t, stats.Events, 3)
		assert.NotEmpty(t, stats.LastEventPath)
	})
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	var calls atomic.Int32
	w := NewWatcher(dir, testDebounce, func(context.Context) error {
		calls.Add(1)
		return nil
	}, nil)

	t.Run("ignored", func(t *testing.T) {
		startWatcher(t, w)

		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
		time.Sleep(4 * testDebounce)

		assert.Zero(t, calls.Load())
		assert.Zero(t, w.Stats().Events)
	})
}

func TestWatcher_ReloadError(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	w := NewWatcher(dir, testDebounce, func(context.Context) error {
		return errors.New("no readable files")
	}, nil)

	t.Run("error counted", func(t *testing.T) {
		startWatcher(t, w)

		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("x"), 0o644))
		require.Eventually(t, func() bool { return w.Stats().Errors == 1 }, 3*time.Second, 10*time.Millisecond)
	})
}

func TestWatcher_MissingDir(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := NewWatcher(filepath.Join(t.TempDir(), "missing"), 0, nil, nil)
	assert.Equal(t, DefaultDebounce, w.debounce)

	err := w.Run(context.Background())
	assert.Error(t, err)
}
