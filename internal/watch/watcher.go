// Package watch delivers debounced batches of changed source files so
// watch mode can relint only what the user touched.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"jsvet/internal/config"
	"jsvet/internal/engine"
	"jsvet/internal/logging"
)

// Watcher observes source trees and reports settled changes. fsnotify
// is not recursive, so every directory under the roots is registered
// individually and new directories are picked up from Create events.
//
// Set OnChange and OnRemove before calling Start.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	cfg         *config.Config
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	// OnChange receives each settled batch of changed files, sorted.
	OnChange func(paths []string)

	// OnRemove is called when a watched file is removed or renamed
	// away.
	OnRemove func(path string)

	stats Stats
}

// Stats tracks watcher activity for debugging.
type Stats struct {
	EventsSeen       uint64
	EventsDebounced  uint64
	BatchesDelivered uint64
	FilesRemoved     uint64
	LastEventTime    time.Time
	LastEventPath    string
}

// New creates a watcher for files matching the configured extensions.
func New(cfg *config.Config) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:     watcher,
		cfg:         cfg,
		debounceMap: make(map[string]time.Time),
		debounceDur: 500 * time.Millisecond, // Debounce rapid saves
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Add registers root and all of its subdirectories, under the same
// ignore and hidden-directory policy the lint walk uses.
func (w *Watcher) Add(root string) error {
	dirs, err := engine.WatchDirs(w.cfg, root)
	if err != nil {
		return err
	}

	for _, dir := range dirs {
		if err := w.watcher.Add(dir); err != nil {
			logging.WatchWarn("failed to watch %s: %v", dir, err)
			continue
		}
		logging.WatchDebug("watching %s", dir)
	}
	return nil
}

// Start begins delivering change batches. Non-blocking.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to drain. Safe
// to call more than once, and before Start.
func (w *Watcher) Stop() {
	w.mu.Lock()
	wasRunning := w.running
	w.running = false
	w.mu.Unlock()

	if wasRunning {
		close(w.stopCh)
		<-w.doneCh
	}

	if err := w.watcher.Close(); err != nil {
		logging.WatchError("failed to close watcher: %v", err)
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

// WatchedDirs returns the directories currently being watched.
func (w *Watcher) WatchedDirs() []string {
	return w.watcher.WatchList()
}

// run is the main event loop.
func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	// Sweep timer for draining settled debounce entries
	sweep := time.NewTicker(100 * time.Millisecond)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Watch("context cancelled")
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
			logging.WatchError("watch error: %v", err)

		case <-sweep.C:
			w.deliverSettled()
		}
	}
}

// handleEvent processes a single filesystem event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	w.mu.Lock()
	w.stats.EventsSeen++
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = event.Name
	w.mu.Unlock()

	// New directories join the watch set.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !engine.WatchableDir(w.cfg, filepath.Base(event.Name)) {
				return
			}
			if err := w.Add(event.Name); err != nil {
				logging.WatchWarn("failed to watch new directory %s: %v", event.Name, err)
			}
			return
		}
	}

	if !w.cfg.MatchesExtension(event.Name) {
		return
	}

	switch {
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.mu.Lock()
		delete(w.debounceMap, event.Name)
		w.stats.FilesRemoved++
		w.mu.Unlock()

		logging.WatchDebug("removed %s", event.Name)
		if w.OnRemove != nil {
			w.OnRemove(event.Name)
		}

	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		w.mu.Lock()
		if _, pending := w.debounceMap[event.Name]; pending {
			w.stats.EventsDebounced++
		}
		w.debounceMap[event.Name] = time.Now()
		w.mu.Unlock()
	}
	// Chmod and the rest are ignored.
}

// deliverSettled hands every change older than the debounce window to
// OnChange as one sorted batch.
func (w *Watcher) deliverSettled() {
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
		w.stats.BatchesDelivered++
	}
	w.mu.Unlock()

	if len(settled) == 0 {
		return
	}

	sort.Strings(settled)
	logging.Watch("delivering %d changed file(s)", len(settled))
	if w.OnChange != nil {
		w.OnChange(settled)
	}
}
