package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"prodlens/internal/imageset"
	"prodlens/internal/logging"
)

// Watcher processes product folders as they appear under a base directory.
// New folders (and ZIP drops) settle for a grace period before processing,
// so an in-progress copy is not picked up half-written.
type Watcher struct {
	runner *Runner
	dir    string
	settle time.Duration

	// OnOutcome receives each completed product. Called from the watch
	// goroutine; keep it quick.
	OnOutcome func(Outcome)
}

// NewWatcher creates a watcher over dir. A settle duration <= 0 defaults to
// 2 seconds.
func NewWatcher(runner *Runner, dir string, settle time.Duration) *Watcher {
	if settle <= 0 {
		settle = 2 * time.Second
	}
	return &Watcher{runner: runner, dir: dir, settle: settle}
}

// Watch blocks until ctx is canceled, processing each new product folder or
// ZIP archive dropped into the base directory exactly once.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	logging.Watch("watching %s (settle %v)", w.dir, w.settle)

	seen := make(map[string]bool)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if seen[event.Name] {
				continue
			}
			seen[event.Name] = true
			w.handle(ctx, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.WatchError("watch error: %v", err)
		}
	}
}

// handle waits for the new entry to settle, resolves its images, and runs
// it as a single-item batch.
func (w *Watcher) handle(ctx context.Context, path string) {
	select {
	case <-time.After(w.settle):
	case <-ctx.Done():
		return
	}

	item, ok := w.resolve(path)
	if !ok {
		return
	}
	logging.Watch("processing %s (%d images)", item.Name, len(item.Images))

	result := w.runner.Run(ctx, []Item{item})
	if w.OnOutcome != nil {
		w.OnOutcome(result.Outcomes[0])
	}
}

// resolve turns a created path into a batch item, or reports it as not a
// product (plain files, unsupported types).
func (w *Watcher) resolve(path string) (Item, bool) {
	info, err := os.Stat(path)
	if err != nil {
		logging.WatchError("stat %s: %v", path, err)
		return Item{}, false
	}

	name := filepath.Base(path)
	switch {
	case info.IsDir():
		images, err := imageset.FromFolder(path)
		if err != nil {
			logging.WatchError("load %s: %v", path, err)
			return Item{}, false
		}
		return Item{Name: name, Images: images}, true
	case strings.EqualFold(filepath.Ext(name), ".zip"):
		images, err := imageset.FromZip(path)
		if err != nil {
			logging.WatchError("load %s: %v", path, err)
			return Item{}, false
		}
		return Item{Name: strings.TrimSuffix(name, filepath.Ext(name)), Images: images}, true
	default:
		return Item{}, false
	}
}
