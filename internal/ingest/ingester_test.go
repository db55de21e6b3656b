package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/medhelm/nursedesk/internal/index"
	"github.com/medhelm/nursedesk/internal/knowledge"
	"github.com/medhelm/nursedesk/internal/models"
	"github.com/medhelm/nursedesk/internal/storage"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIngestFile_FrontMatter(t *testing.T) {
	store := storage.NewMemoryStore()
	g := NewIngester(store, zap.NewNop())
	ctx := context.Background()

	path := writeFile(t, t.TempDir(), "cvvh.md", `---
id: icu-cvvh-setup
keywords: [cvvh, dialysis]
imageUrl: https://kb.example/cvvh.png
---
# CVVH setup

Prime the circuit.`)

	id, err := g.IngestFile(ctx, path, "icu")
	if err != nil {
		t.Fatal(err)
	}
	if id != "icu-cvvh-setup" {
		t.Errorf("got %q", id)
	}

	repo := knowledge.NewRepository(store, zap.NewNop())
	doc := repo.GetByID(ctx, "icu-cvvh-setup")
	if doc == nil {
		t.Fatal("document not stored")
	}
	if doc.Text != "# CVVH setup\n\nPrime the circuit." {
		t.Errorf("got %q", doc.Text)
	}
	if doc.ImageURL != "https://kb.example/cvvh.png" {
		t.Errorf("got %q", doc.ImageURL)
	}

	ix, err := index.Load(ctx, store)
	if err != nil {
		t.Fatal(err)
	}
	target := ix.Resolve("need help with dialysis today")
	if target == nil || target.DocumentID != "icu-cvvh-setup" {
		t.Errorf("keywords not indexed: %+v", target)
	}
	// The department code itself resolves to a listing.
	target = ix.Resolve("icu")
	if target == nil || target.Kind != models.TargetDepartment {
		t.Errorf("department not registered: %+v", target)
	}
}

func TestIngestFile_DerivedIDAndKeywords(t *testing.T) {
	store := storage.NewMemoryStore()
	g := NewIngester(store, zap.NewNop())
	ctx := context.Background()

	path := writeFile(t, t.TempDir(), "Vent Alarms.md", "# Ventilator alarms\n\nSilence, then assess.")
	id, err := g.IngestFile(ctx, path, "icu")
	if err != nil {
		t.Fatal(err)
	}
	if id != "icu-vent-alarms" {
		t.Errorf("got %q", id)
	}

	ix, _ := index.Load(ctx, store)
	target := ix.Resolve("what do ventilator alarms mean")
	if target == nil || target.DocumentID != "icu-vent-alarms" {
		t.Errorf("title keyword not indexed: %+v", target)
	}
}

func TestIngestDir(t *testing.T) {
	store := storage.NewMemoryStore()
	g := NewIngester(store, zap.NewNop())
	dir := t.TempDir()

	writeFile(t, dir, "a.md", "# A\n\nbody")
	writeFile(t, dir, "b.txt", "# B\n\nbody")
	writeFile(t, dir, "ignored.log", "nope")

	count, err := g.IngestDir(context.Background(), dir, "ward", []string{".md", ".txt"}, true)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("expected 2 ingested, got %d", count)
	}

	repo := knowledge.NewRepository(store, zap.NewNop())
	entries := repo.ListDepartmentEntries(context.Background(), "ward")
	if len(entries) != 2 {
		t.Errorf("got %+v", entries)
	}
}

func TestRemove(t *testing.T) {
	store := storage.NewMemoryStore()
	g := NewIngester(store, zap.NewNop())
	ctx := context.Background()

	path := writeFile(t, t.TempDir(), "cvvh.md", "---\nid: icu-cvvh-setup\nkeywords: [cvvh]\n---\n# C")
	if _, err := g.IngestFile(ctx, path, "icu"); err != nil {
		t.Fatal(err)
	}

	if err := g.Remove(ctx, "icu-cvvh-setup"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx, knowledge.Key("icu-cvvh-setup")); err != storage.ErrNotFound {
		t.Error("document should be gone")
	}
	ix, _ := index.Load(ctx, store)
	if target := ix.Resolve("cvvh"); target != nil {
		t.Errorf("index entry should be gone, got %+v", target)
	}
	// The department keyword survives removal of one document.
	if target := ix.Resolve("icu"); target == nil {
		t.Error("department keyword should survive")
	}
}

func TestSplitFrontMatter_Unterminated(t *testing.T) {
	if _, _, err := splitFrontMatter("---\nid: x\nno end"); err == nil {
		t.Error("expected error")
	}
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Vent Alarms":     "vent-alarms",
		"CVVH  (Setup)!":  "cvvh-setup",
		"already-slugged": "already-slugged",
		"Trailing space ": "trailing-space",
	}
	for in, want := range cases {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}
