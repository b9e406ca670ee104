package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"

	"jsvet/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestWatcher(t *testing.T) *Watcher {
	t.Helper()
	w, err := New(config.DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// Short debounce keeps the tests fast; the sweep tick is 100ms.
	w.debounceDur = 50 * time.Millisecond
	t.Cleanup(w.Stop)
	return w
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestWatcherDeliversChangedFile(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t)

	changed := make(chan []string, 1)
	w.OnChange = func(paths []string) { changed <- paths }

	if err := w.Add(dir); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	path := filepath.Join(dir, "a.js")
	write(t, path, "var a = 1;\n")

	select {
	case batch := <-changed:
		if len(batch) != 1 || batch[0] != path {
			t.Errorf("batch = %v, want [%s]", batch, path)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no change delivered")
	}
}

func TestWatcherCoalescesRapidWrites(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t)

	changed := make(chan []string, 4)
	w.OnChange = func(paths []string) { changed <- paths }

	if err := w.Add(dir); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	path := filepath.Join(dir, "a.js")
	write(t, path, "var a = 1;\n")
	time.Sleep(10 * time.Millisecond)
	write(t, path, "var a = 2;\n")
	time.Sleep(10 * time.Millisecond)
	write(t, path, "var a = 3;\n")

	select {
	case batch := <-changed:
		if len(batch) != 1 || batch[0] != path {
			t.Errorf("batch = %v, want [%s]", batch, path)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no change delivered")
	}

	// The rapid writes settled into a single batch.
	select {
	case batch := <-changed:
		t.Errorf("unexpected second batch %v", batch)
	case <-time.After(300 * time.Millisecond):
	}

	if stats := w.GetStats(); stats.BatchesDelivered != 1 {
		t.Errorf("BatchesDelivered = %d, want 1", stats.BatchesDelivered)
	}
}

func TestWatcherIgnoresUnmatchedExtensions(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t)

	changed := make(chan []string, 1)
	w.OnChange = func(paths []string) { changed <- paths }

	if err := w.Add(dir); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	write(t, filepath.Join(dir, "notes.md"), "# notes\n")

	select {
	case batch := <-changed:
		t.Errorf("markdown file should not be delivered: %v", batch)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcherReportsRemovals(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.js")
	write(t, path, "var a = 1;\n")

	w := newTestWatcher(t)

	removed := make(chan string, 1)
	w.OnRemove = func(p string) { removed <- p }

	if err := w.Add(dir); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}

	select {
	case got := <-removed:
		if got != path {
			t.Errorf("removed = %s, want %s", got, path)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no removal delivered")
	}
}

func TestWatcherPicksUpNewDirectories(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t)

	changed := make(chan []string, 1)
	w.OnChange = func(paths []string) { changed <- paths }

	if err := w.Add(dir); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// Give the Create event time to register the new directory.
	time.Sleep(500 * time.Millisecond)

	path := filepath.Join(sub, "b.js")
	write(t, path, "var b = 1;\n")

	select {
	case batch := <-changed:
		if len(batch) != 1 || batch[0] != path {
			t.Errorf("batch = %v, want [%s]", batch, path)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no change delivered from new directory")
	}
}

func TestWatcherSkipsIgnoredDirs(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "node_modules", "lib", "c.js"), "var c = 1;\n")

	w := newTestWatcher(t)

	changed := make(chan []string, 1)
	w.OnChange = func(paths []string) { changed <- paths }

	if err := w.Add(dir); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	write(t, filepath.Join(dir, "node_modules", "lib", "c.js"), "var c = 2;\n")

	select {
	case batch := <-changed:
		t.Errorf("ignored directory should be silent: %v", batch)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	w := newTestWatcher(t)

	if w.IsWatching() {
		t.Error("watching before Start")
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !w.IsWatching() {
		t.Error("not watching after Start")
	}

	w.Stop()
	if w.IsWatching() {
		t.Error("still watching after Stop")
	}
	w.Stop() // second Stop must not panic
}
