// Package watcher notices knowledge-base edits so the server can flag
// the search index as stale. Rapid editor save bursts are debounced
// into one batch.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the coalescing window for change batches.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches the knowledge-base root recursively for markdown
// changes.
type Watcher struct {
	root     string
	debounce time.Duration
	logger   *slog.Logger

	fsw     *fsnotify.Watcher
	changes chan []string

	mu      sync.Mutex
	pending map[string]bool
	timer   *time.Timer
	stopped bool
	stopCh  chan struct{}
}

// New creates a watcher for the given root directory.
func New(root string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		root:     root,
		debounce: debounce,
		logger:   logger,
		fsw:      fsw,
		changes:  make(chan []string, 10),
		pending:  make(map[string]bool),
		stopCh:   make(chan struct{}),
	}, nil
}

// Changes returns batches of changed relative paths. The channel is
// closed when the watcher stops.
func (w *Watcher) Changes() <-chan []string {
	return w.changes
}

// Start watches until the context is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addRecursive(w.root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.root, err)
	}

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", slog.String("error", err.Error()))
		}
	}
}

// Stop stops the watcher and closes the change channel. Safe to call
// more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true

	if w.timer != nil {
		w.timer.Stop()
	}
	close(w.stopCh)
	err := w.fsw.Close()
	close(w.changes)
	return err
}

// addRecursive registers every non-hidden directory under path.
// fsnotify watches are per-directory, not recursive.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("skipping unwatchable path",
				slog.String("path", path),
				slog.String("error", err.Error()))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() != "." && strings.HasPrefix(d.Name(), ".") && path != root {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	// Hidden paths hold index data and VCS state.
	for _, part := range strings.Split(rel, "/") {
		if part != "." && strings.HasPrefix(part, ".") {
			return
		}
	}

	// New subdirectories need their own watch.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory",
					slog.String("path", rel),
					slog.String("error", err.Error()))
			}
			return
		}
	}

	if !strings.HasSuffix(rel, ".md") {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}

	w.pending[rel] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

// flush emits the pending batch.
func (w *Watcher) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped || len(w.pending) == 0 {
		return
	}

	batch := make([]string, 0, len(w.pending))
	for path := range w.pending {
		batch = append(batch, path)
	}
	w.pending = make(map[string]bool)

	select {
	case w.changes <- batch:
	default:
		w.logger.Warn("change channel full, dropping batch",
			slog.Int("batch_size", len(batch)))
	}
}
