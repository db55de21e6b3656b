// Package knowledge provides read access to stored knowledge documents and
// derived department listings.
package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/medhelm/nursedesk/internal/models"
	"github.com/medhelm/nursedesk/internal/storage"
	"github.com/medhelm/nursedesk/pkg/utils"
)

// keyPrefix namespaces document records in the key-value store.
const keyPrefix = "knowledge:"

// Fallback markers when a document carries no usable heading or body text.
const (
	untitledMarker      = "untitled entry"
	noDescriptionMarker = "no description"
)

// descriptionMaxLen bounds the short description shown in listings.
const descriptionMaxLen = 50

// Key returns the storage key for a document id.
func Key(id string) string { return keyPrefix + id }

// Repository resolves document ids to full records and enumerates
// departments. All reads fail soft: a storage failure or malformed record
// is logged and surfaced as an absent/empty result, never an error.
type Repository struct {
	store  storage.Store
	logger *zap.Logger
}

// NewRepository creates a repository over the given store.
func NewRepository(store storage.Store, logger *zap.Logger) *Repository {
	return &Repository{store: store, logger: logger}
}

// GetByID returns the document for id, or nil when it is missing, the
// store fails, or the stored payload does not parse.
func (r *Repository) GetByID(ctx context.Context, id string) *models.KnowledgeDocument {
	raw, err := r.store.Get(ctx, Key(id))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			r.logger.Debug("document not found", zap.String("id", id))
		} else {
			r.logger.Error("document fetch failed", zap.String("id", id), zap.Error(err))
		}
		return nil
	}

	var doc models.KnowledgeDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		r.logger.Error("malformed document record", zap.String("id", id), zap.Error(err))
		return nil
	}
	return &doc
}

// ListIDs enumerates all stored document ids, or an empty slice when the
// store fails.
func (r *Repository) ListIDs(ctx context.Context) []string {
	keys, err := r.store.List(ctx, keyPrefix)
	if err != nil {
		r.logger.Error("document list failed", zap.Error(err))
		return nil
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, keyPrefix))
	}
	return ids
}

// ListDepartmentEntries returns listing rows for every document whose id
// begins with "<code>-". Documents are fetched concurrently; entries whose
// fetch fails are dropped so a partial listing beats no listing.
func (r *Repository) ListDepartmentEntries(ctx context.Context, code string) []models.DepartmentEntry {
	var deptIDs []string
	for _, id := range r.ListIDs(ctx) {
		if strings.HasPrefix(id, code+"-") {
			deptIDs = append(deptIDs, id)
		}
	}
	if len(deptIDs) == 0 {
		return []models.DepartmentEntry{}
	}

	docs := make([]*models.KnowledgeDocument, len(deptIDs))
	var wg sync.WaitGroup
	for i, id := range deptIDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			docs[i] = r.GetByID(ctx, id)
		}(i, id)
	}
	wg.Wait()

	entries := make([]models.DepartmentEntry, 0, len(docs))
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		entries = append(entries, models.DepartmentEntry{
			ID:          doc.ID,
			Title:       Title(doc.Text),
			Description: Description(doc.Text),
		})
	}
	return entries
}

// Title returns the text of the first "#" heading line, or the untitled
// marker when the document has no heading.
func Title(text string) string {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			return strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
		}
	}
	return untitledMarker
}

// Description returns the first paragraph that is not a heading, truncated
// to 50 characters, or the no-description marker when none qualifies.
func Description(text string) string {
	for _, block := range strings.Split(text, "\n\n") {
		trimmed := strings.TrimSpace(block)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		return utils.Truncate(trimmed, descriptionMaxLen)
	}
	return noDescriptionMarker
}
