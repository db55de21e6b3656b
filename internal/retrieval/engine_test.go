package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/medhelm/nursedesk/internal/index"
	"github.com/medhelm/nursedesk/internal/knowledge"
	"github.com/medhelm/nursedesk/internal/models"
	"github.com/medhelm/nursedesk/internal/storage"
)

// brokenStore fails every operation.
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("backend down")
}
func (brokenStore) Put(context.Context, string, []byte) error { return errors.New("backend down") }
func (brokenStore) Delete(context.Context, string) error      { return errors.New("backend down") }
func (brokenStore) List(context.Context, string) ([]string, error) {
	return nil, errors.New("backend down")
}
func (brokenStore) Close() error { return nil }

func newTestEngine(t *testing.T) (*Engine, storage.Store) {
	t.Helper()
	store := storage.NewMemoryStore()
	logger := zap.NewNop()
	repo := knowledge.NewRepository(store, logger)
	return NewEngine(store, repo, logger), store
}

func seed(t *testing.T, store storage.Store, indexJSON string, docs ...models.KnowledgeDocument) {
	t.Helper()
	ctx := context.Background()
	if err := store.Put(ctx, index.StoreKey, []byte(indexJSON)); err != nil {
		t.Fatal(err)
	}
	for _, doc := range docs {
		raw, _ := json.Marshal(doc)
		if err := store.Put(ctx, knowledge.Key(doc.ID), raw); err != nil {
			t.Fatal(err)
		}
	}
}

func TestGetResponse_Scenario(t *testing.T) {
	engine, store := newTestEngine(t)
	seed(t, store,
		`{"icu": "Department:icu", "cvvh": "icu-cvvh-setup"}`,
		models.KnowledgeDocument{ID: "icu-cvvh-setup", Text: "# CVVH setup\n\nPrime the circuit."},
	)
	ctx := context.Background()

	result := engine.GetResponse(ctx, "icu")
	if result == nil || !result.IsDepartmentListing || result.Department != "icu" {
		t.Fatalf("expected icu listing, got %+v", result)
	}
	if len(result.Entries) != 1 || result.Entries[0].ID != "icu-cvvh-setup" {
		t.Errorf("got %+v", result.Entries)
	}

	result = engine.GetResponse(ctx, "how do I set up cvvh")
	if result == nil || result.Document == nil || result.Document.ID != "icu-cvvh-setup" {
		t.Fatalf("expected document, got %+v", result)
	}

	if result := engine.GetResponse(ctx, "xyz"); result != nil {
		t.Errorf("expected miss, got %+v", result)
	}
}

func TestGetResponse_EmptyDepartmentIsStillAListing(t *testing.T) {
	engine, store := newTestEngine(t)
	seed(t, store, `{"ward": "Department:ward"}`)

	result := engine.GetResponse(context.Background(), "ward")
	if result == nil || !result.IsDepartmentListing {
		t.Fatalf("empty department must still be a listing, got %+v", result)
	}
	if len(result.Entries) != 0 {
		t.Errorf("got %+v", result.Entries)
	}
}

func TestGetResponse_IndexAbsent(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	store := storage.NewMemoryStore()
	engine := NewEngine(store, knowledge.NewRepository(store, logger), logger)

	if result := engine.GetResponse(context.Background(), "anything"); result != nil {
		t.Errorf("missing index should be a miss, got %+v", result)
	}
	// A never-written index is a not-found, not an outage.
	for _, entry := range logs.All() {
		if entry.Level > zap.DebugLevel {
			t.Errorf("absent index logged at %v: %s", entry.Level, entry.Message)
		}
	}
}

func TestGetResponse_IndexUnparseable(t *testing.T) {
	engine, store := newTestEngine(t)
	_ = store.Put(context.Background(), index.StoreKey, []byte("{broken"))
	if result := engine.GetResponse(context.Background(), "anything"); result != nil {
		t.Errorf("unparseable index should be a miss, got %+v", result)
	}
}

func TestGetResponse_ResolvedButDocumentMissing(t *testing.T) {
	engine, store := newTestEngine(t)
	seed(t, store, `{"cvvh": "icu-cvvh-setup"}`) // index points at an absent doc

	if result := engine.GetResponse(context.Background(), "cvvh"); result != nil {
		t.Errorf("dangling index entry should be a miss, got %+v", result)
	}
}

func TestGetResponse_StorageOutageNeverRaises(t *testing.T) {
	logger := zap.NewNop()
	store := brokenStore{}
	engine := NewEngine(store, knowledge.NewRepository(store, logger), logger)

	if result := engine.GetResponse(context.Background(), "icu"); result != nil {
		t.Errorf("outage should degrade to a miss, got %+v", result)
	}
}
