package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startWatcher(t *testing.T, path string, calls *int32) (cancel func()) {
	t.Helper()
	w, err := New(path, func() { atomic.AddInt32(calls, 1) }, nil)
	require.NoError(t, err)
	w.SetDebounce(20 * time.Millisecond)

	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()
	return func() {
		stop()
		<-done
	}
}

func TestWatcherFiresOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bangs.json")
	var calls int32
	cancel := startWatcher(t, path, &calls)
	defer cancel()

	require.NoError(t, os.WriteFile(path, []byte(`{"bangs":[]}`), 0644))

	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) >= 1 },
		2*time.Second, 10*time.Millisecond)
}

func TestWatcherFiresOnAtomicReplace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bangs.json")
	var calls int32
	cancel := startWatcher(t, path, &calls)
	defer cancel()

	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(`{"bangs":[]}`), 0644))
	require.NoError(t, os.Rename(tmp, path))

	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) >= 1 },
		2*time.Second, 10*time.Millisecond)
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	var calls int32
	cancel := startWatcher(t, filepath.Join(dir, "bangs.json"), &calls)
	defer cancel()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("x"), 0644))
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestWatcherDebounces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bangs.json")
	var calls int32
	w, err := New(path, func() { atomic.AddInt32(&calls, 1) }, nil)
	require.NoError(t, err)
	w.SetDebounce(150 * time.Millisecond)

	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()
	defer func() {
		stop()
		<-done
	}()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte{byte('a' + i)}, 0644))
		time.Sleep(10 * time.Millisecond)
	}
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 },
		2*time.Second, 10*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
