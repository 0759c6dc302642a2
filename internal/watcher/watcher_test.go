package watcher_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opsdeck/opsdeck/internal/watcher"
)

func newStartedWatcher(t *testing.T, storePath string) *watcher.Watcher {
	t.Helper()

	w, err := watcher.New(watcher.Config{
		StorePath:   storePath,
		DebounceDur: 50 * time.Millisecond,
	})
	require.NoError(t, err, "failed to create watcher")
	t.Cleanup(func() { _ = w.Stop() })

	require.NoError(t, w.Start(), "failed to start watcher")
	return w
}

func TestWatcher_DebounceMultipleWrites(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "workflows.json")
	require.NoError(t, os.WriteFile(storePath, []byte("[]"), 0o644))

	w := newStartedWatcher(t, storePath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := w.Broker().Subscribe(ctx)

	// Rapid writes should coalesce into a single published event
	for i := 0; i < 10; i++ {
		require.NoError(t, os.WriteFile(storePath, []byte(fmt.Sprintf("[%d]", i)), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case event := <-events:
		require.Equal(t, storePath, event.Payload.Path)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected store change event but got timeout")
	}

	select {
	case <-events:
		t.Fatal("unexpected second event after debounce window")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "workflows.json")
	require.NoError(t, os.WriteFile(storePath, []byte("[]"), 0o644))

	w := newStartedWatcher(t, storePath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := w.Broker().Subscribe(ctx)

	// Writes to other files in the store directory must not publish
	other := filepath.Join(dir, "debug.log")
	require.NoError(t, os.WriteFile(other, []byte("noise"), 0o644))

	select {
	case event := <-events:
		t.Fatalf("unexpected event for unrelated file: %+v", event.Payload)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_SeesRenameReplace(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "workflows.json")
	require.NoError(t, os.WriteFile(storePath, []byte("[]"), 0o644))

	w := newStartedWatcher(t, storePath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := w.Broker().Subscribe(ctx)

	// Saves go through a temp file plus rename, same as the store does
	tmp := filepath.Join(dir, "workflows.json.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte(`[{"id":"workflow_1_aa"}]`), 0o644))
	require.NoError(t, os.Rename(tmp, storePath))

	select {
	case event := <-events:
		require.Equal(t, storePath, event.Payload.Path)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected event after rename-replace but got timeout")
	}
}

func TestWatcher_StopIsClean(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "workflows.json")

	w, err := watcher.New(watcher.DefaultConfig(storePath))
	require.NoError(t, err)
	require.NoError(t, w.Start())
	require.NoError(t, w.Stop())
}
