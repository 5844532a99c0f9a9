// Package watch monitors a class input tree and triggers regeneration
// when source files settle after editing.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Stats tracks watcher activity for debugging.
type Stats struct {
	FilesCreated  int
	FilesModified int
	FilesDeleted  int
	Rebuilds      int
	Errors        int
	LastEventPath string
	LastEventTime time.Time
}

// Watcher watches the class input directories and calls the rebuild
// callback once per settled burst of changes. Rapid saves within the
// debounce window collapse into a single rebuild.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	dirs        []string
	exts        []string
	onChange    func(ctx context.Context, paths []string)
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	stats       Stats
	log         *zap.Logger
}

// New creates a Watcher over dirs. Only events for files whose extension
// is in exts are considered; an empty exts list accepts everything.
func New(dirs, exts []string, onChange func(ctx context.Context, paths []string), log *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:     fsw,
		dirs:        dirs,
		exts:        exts,
		onChange:    onChange,
		debounceMap: make(map[string]time.Time),
		debounceDur: 500 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
		log:         log,
	}, nil
}

// Start begins watching. Non-blocking; the event loop runs in a
// goroutine until Stop is called or the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	for _, dir := range w.dirs {
		if _, err := os.Stat(dir); err != nil {
			w.log.Warn("watch directory missing, skipping", zap.String("dir", dir))
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			w.log.Warn("failed to watch directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		w.log.Info("watching directory", zap.String("dir", dir))
	}

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
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
		w.log.Error("error closing watcher", zap.Error(err))
	}
}

// IsWatching reports whether the event loop is running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// GetStats returns a snapshot of the watcher statistics.
func (w *Watcher) GetStats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
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
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("watch error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case <-ticker.C:
			w.fireSettled(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !w.wantsFile(event.Name) {
		return
	}
	switch {
	case event.Op&fsnotify.Create != 0:
		w.bump(event.Name, func(s *Stats) { s.FilesCreated++ })
	case event.Op&fsnotify.Write != 0:
		w.bump(event.Name, func(s *Stats) { s.FilesModified++ })
	case event.Op&fsnotify.Remove != 0, event.Op&fsnotify.Rename != 0:
		w.bump(event.Name, func(s *Stats) { s.FilesDeleted++ })
	default:
		// chmod and friends
	}
}

func (w *Watcher) bump(path string, count func(*Stats)) {
	w.log.Debug("input change detected", zap.String("path", path))
	w.mu.Lock()
	count(&w.stats)
	w.stats.LastEventPath = path
	w.stats.LastEventTime = time.Now()
	w.debounceMap[path] = time.Now()
	w.mu.Unlock()
}

// fireSettled invokes the callback once for all paths whose last event is
// older than the debounce window.
func (w *Watcher) fireSettled(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var settled []string
	for path, at := range w.debounceMap {
		if now.Sub(at) >= w.debounceDur {
			settled = append(settled, path)
			delete(w.debounceMap, path)
		}
	}
	if len(settled) > 0 {
		w.stats.Rebuilds++
	}
	w.mu.Unlock()

	if len(settled) > 0 && w.onChange != nil {
		w.log.Info("input files settled, triggering rebuild",
			zap.Int("files", len(settled)))
		w.onChange(ctx, settled)
	}
}

func (w *Watcher) wantsFile(path string) bool {
	if len(w.exts) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range w.exts {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}
