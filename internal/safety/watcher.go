package safety

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"mirrorme/internal/logging"
)

// =============================================================================
// REDLINE FILE WATCHER
// =============================================================================

// RedlineWatcher watches a redline term file and hot-reloads the gate's
// term set when it changes. One term per line; blank lines and '#'
// comments are ignored.
type RedlineWatcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	gate        *Gate
	path        string
	debounceDur time.Duration
	pending     time.Time
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
}

// NewRedlineWatcher creates a watcher for the given term file.
func NewRedlineWatcher(path string, gate *Gate) (*RedlineWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &RedlineWatcher{
		watcher:     watcher,
		gate:        gate,
		path:        path,
		debounceDur: 500 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start loads the file once and begins watching its directory. The watch
// is on the directory so editor rename-into-place saves are seen.
func (w *RedlineWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.reload(); err != nil && !os.IsNotExist(err) {
		logging.Get(logging.CategorySafety).Warn("RedlineWatcher: initial load failed: %v", err)
	}

	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		logging.Get(logging.CategorySafety).Warn("RedlineWatcher: watch failed for %s: %v", dir, err)
	} else {
		logging.Safety("RedlineWatcher: watching %s", w.path)
	}

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the loop to exit.
func (w *RedlineWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.Get(logging.CategorySafety).Error("RedlineWatcher: close failed: %v", err)
	}
}

func (w *RedlineWatcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			w.pending = time.Now()
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategorySafety).Error("RedlineWatcher: %v", err)

		case <-ticker.C:
			w.mu.Lock()
			due := !w.pending.IsZero() && time.Since(w.pending) >= w.debounceDur
			if due {
				w.pending = time.Time{}
			}
			w.mu.Unlock()

			if due {
				if err := w.reload(); err != nil {
					logging.Get(logging.CategorySafety).Error("RedlineWatcher: reload failed: %v", err)
				}
			}
		}
	}
}

// reload reads the term file and replaces the gate's redline set.
func (w *RedlineWatcher) reload() error {
	f, err := os.Open(w.path)
	if err != nil {
		return err
	}
	defer f.Close()

	var terms []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		terms = append(terms, line)
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	w.gate.ReplaceRedlines(terms)
	return nil
}
