package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

// collector records callback paths, ordered.
type collector struct {
	mu    sync.Mutex
	paths []string
}

func (c *collector) add(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, path)
}

func (c *collector) wait(t *testing.T, n int) []string {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		got := len(c.paths)
		c.mu.Unlock()
		if got >= n {
			c.mu.Lock()
			defer c.mu.Unlock()
			return append([]string(nil), c.paths...)
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d callbacks", n)
	return nil
}

func TestWatcher_IngestOnCreate(t *testing.T) {
	dir := t.TempDir()
	ingested := &collector{}
	w := New([]string{dir}, []string{".md"}, false, ingested.add, nil, zap.NewNop())
	w.debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "note.md")
	if err := os.WriteFile(path, []byte("# N"), 0600); err != nil {
		t.Fatal(err)
	}

	got := ingested.wait(t, 1)
	if got[0] != path {
		t.Errorf("got %v", got)
	}
}

func TestWatcher_ExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	ingested := &collector{}
	w := New([]string{dir}, []string{".md"}, false, ingested.add, nil, zap.NewNop())
	w.debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	_ = os.WriteFile(filepath.Join(dir, "skip.log"), []byte("x"), 0600)
	_ = os.WriteFile(filepath.Join(dir, "keep.md"), []byte("x"), 0600)

	got := ingested.wait(t, 1)
	for _, p := range got {
		if filepath.Ext(p) != ".md" {
			t.Errorf("unexpected callback for %s", p)
		}
	}
}

func TestWatcher_RemoveCallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.md")
	if err := os.WriteFile(path, []byte("# N"), 0600); err != nil {
		t.Fatal(err)
	}

	removed := &collector{}
	w := New([]string{dir}, []string{".md"}, false, nil, removed.add, zap.NewNop())
	w.debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	got := removed.wait(t, 1)
	if got[0] != path {
		t.Errorf("got %v", got)
	}
}

func TestWatcher_StopDuringEvents(t *testing.T) {
	dir := t.TempDir()
	w := New([]string{dir}, []string{".md"}, false, func(string) {}, func(string) {}, zap.NewNop())
	w.debounce = time.Millisecond

	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	// Stop while events are still arriving; the event loop must not touch
	// the closed watcher.
	for i := 0; i < 20; i++ {
		_ = os.WriteFile(filepath.Join(dir, fmt.Sprintf("n%d.md", i)), []byte("x"), 0600)
	}
	w.Stop()
	time.Sleep(50 * time.Millisecond)
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w := New([]string{t.TempDir()}, nil, false, nil, nil, zap.NewNop())
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}
