package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prodlens/internal/pipeline"
)

func TestWatcherProcessesNewFolder(t *testing.T) {
	dropDir := t.TempDir()
	runner := newTestRunner(t, &fakeModel{}, 1)

	watcher := NewWatcher(runner, dropDir, 50*time.Millisecond)
	outcomes := make(chan Outcome, 1)
	watcher.OnOutcome = func(out Outcome) { outcomes <- out }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- watcher.Watch(ctx) }()

	// Give the watcher a moment to register before dropping the folder.
	time.Sleep(100 * time.Millisecond)
	productDir := filepath.Join(dropDir, "Leica Q3")
	require.NoError(t, os.Mkdir(productDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(productDir, "front.jpg"), []byte{0xFF}, 0644))

	select {
	case out := <-outcomes:
		assert.Equal(t, "Leica Q3", out.ProductName)
		assert.Equal(t, pipeline.StateSucceeded, out.Status)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never processed the new folder")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on cancellation")
	}
}

func TestWatcherIgnoresPlainFiles(t *testing.T) {
	dropDir := t.TempDir()
	runner := newTestRunner(t, &fakeModel{}, 1)

	watcher := NewWatcher(runner, dropDir, 20*time.Millisecond)
	outcomes := make(chan Outcome, 1)
	watcher.OnOutcome = func(out Outcome) { outcomes <- out }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = watcher.Watch(ctx) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dropDir, "readme.txt"), []byte("hi"), 0644))

	select {
	case out := <-outcomes:
		t.Fatalf("plain file was processed as a product: %+v", out)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatcherDefaultSettle(t *testing.T) {
	w := NewWatcher(nil, ".", 0)
	assert.Equal(t, 2*time.Second, w.settle)
}
