package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu      sync.Mutex
	changed []string
}

func (r *recorder) onChange(path string) {
	r.mu.Lock()
	r.changed = append(r.changed, path)
	r.mu.Unlock()
}

func (r *recorder) paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.changed...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	index := filepath.Join(dir, "items.osvi")
	if err := writeFile(index, "v1"); err != nil {
		t.Fatal(err)
	}

	rec := &recorder{}
	w := NewWatcher([]string{index}, rec.onChange, WithDebounce(100*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	for i := 0; i < 5; i++ {
		if err := writeFile(index, "v2"); err != nil {
			t.Fatal(err)
		}
	}
	waitFor(t, func() bool { return len(rec.paths()) > 0 })
	time.Sleep(200 * time.Millisecond)

	got := rec.paths()
	if len(got) != 1 {
		t.Fatalf("expected one debounced callback, got %v", got)
	}
	if got[0] != index {
		t.Errorf("changed path = %s, want %s", got[0], index)
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	index := filepath.Join(dir, "items.osvi")
	if err := writeFile(index, "v1"); err != nil {
		t.Fatal(err)
	}

	rec := &recorder{}
	w := NewWatcher([]string{index}, rec.onChange, WithDebounce(50*time.Millisecond))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := writeFile(filepath.Join(dir, "notes.txt"), "x"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	if got := rec.paths(); len(got) != 0 {
		t.Errorf("unrelated file triggered callback: %v", got)
	}
}

func TestWatcher_DetectsReplaceByRename(t *testing.T) {
	dir := t.TempDir()
	table := filepath.Join(dir, "embeddings.csv")
	if err := writeFile(table, "sku,e0\n"); err != nil {
		t.Fatal(err)
	}

	rec := &recorder{}
	w := NewWatcher([]string{table}, rec.onChange, WithDebounce(50*time.Millisecond))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	tmp := table + ".tmp"
	if err := writeFile(tmp, "sku,e0\nA,1\n"); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, table); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return len(rec.paths()) > 0 })
	if got := rec.paths(); len(got) == 0 || got[0] != table {
		t.Errorf("rename not reported: %v", got)
	}
}

func TestWatcher_DetectsRemove(t *testing.T) {
	dir := t.TempDir()
	index := filepath.Join(dir, "items.osvi")
	if err := writeFile(index, "v1"); err != nil {
		t.Fatal(err)
	}

	rec := &recorder{}
	w := NewWatcher([]string{index}, rec.onChange, WithDebounce(50*time.Millisecond))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.Remove(index); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return len(rec.paths()) > 0 })
	if len(rec.paths()) == 0 {
		t.Error("remove not reported")
	}
}

func TestWatcher_StopCancelsPending(t *testing.T) {
	dir := t.TempDir()
	index := filepath.Join(dir, "items.osvi")
	if err := writeFile(index, "v1"); err != nil {
		t.Fatal(err)
	}

	rec := &recorder{}
	w := NewWatcher([]string{index}, rec.onChange, WithDebounce(time.Second))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(index, "v2"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	w.Stop()
	w.Stop()
	time.Sleep(1200 * time.Millisecond)
	if got := rec.paths(); len(got) != 0 {
		t.Errorf("callback fired after Stop: %v", got)
	}
}

func TestWatcher_MissingDirectory(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope", "items.osvi")
	w := NewWatcher([]string{missing}, nil)
	if err := w.Start(context.Background()); err == nil {
		w.Stop()
		t.Error("expected error watching a missing directory")
	}
}

func TestNewWatcher_Files(t *testing.T) {
	w := NewWatcher([]string{"/b/table.csv", "", "/a/items.osvi", "/a/../a/items.osvi"}, nil)
	got := w.Files()
	if len(got) != 2 || got[0] != "/a/items.osvi" || got[1] != "/b/table.csv" {
		t.Errorf("Files() = %v", got)
	}
}

func TestWatcher_ContextCancelStops(t *testing.T) {
	dir := t.TempDir()
	index := filepath.Join(dir, "items.osvi")
	if err := writeFile(index, "v1"); err != nil {
		t.Fatal(err)
	}
	w := NewWatcher([]string{index}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()
	waitFor(t, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		return !w.started
	})
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()
	if started {
		t.Error("watcher should stop when context is cancelled")
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0600)
}
