package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteStore_PutGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	if err := store.Put(ctx, "knowledge:icu-cvvh-setup", []byte(`{"id":"icu-cvvh-setup"}`)); err != nil {
		t.Fatal(err)
	}
	got, err := store.Get(ctx, "knowledge:icu-cvvh-setup")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"id":"icu-cvvh-setup"}` {
		t.Errorf("got %s", got)
	}

	// Overwrite.
	if err := store.Put(ctx, "knowledge:icu-cvvh-setup", []byte("v2")); err != nil {
		t.Fatal(err)
	}
	got, _ = store.Get(ctx, "knowledge:icu-cvvh-setup")
	if string(got) != "v2" {
		t.Errorf("expected v2, got %s", got)
	}
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	_, err = store.Get(context.Background(), "nope")
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStore_ListPrefix(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	for _, k := range []string{"knowledge:icu-a", "knowledge:ward-b", "knowledge:icu-c", "keyword-index"} {
		if err := store.Put(ctx, k, []byte("x")); err != nil {
			t.Fatal(err)
		}
	}
	keys, err := store.List(ctx, "knowledge:icu-")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 || keys[0] != "knowledge:icu-a" || keys[1] != "knowledge:icu-c" {
		t.Errorf("got %v", keys)
	}

	keys, err = store.List(ctx, "knowledge:")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 3 {
		t.Errorf("expected 3 keys, got %v", keys)
	}
}

func TestSQLiteStore_ListEscapesLikeMeta(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	_ = store.Put(ctx, "a_b", []byte("x"))
	_ = store.Put(ctx, "axb", []byte("x"))
	keys, err := store.List(ctx, "a_")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 1 || keys[0] != "a_b" {
		t.Errorf("underscore should not be a wildcard: got %v", keys)
	}
}

func TestSQLiteStore_Delete(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	_ = store.Put(ctx, "k", []byte("v"))
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx, "k"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	// Deleting an absent key is fine.
	if err := store.Delete(ctx, "k"); err != nil {
		t.Errorf("delete absent: %v", err)
	}
}
