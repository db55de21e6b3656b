// Package index provides the in-memory keyword index mapping searchable
// terms to knowledge documents or department listings.
package index

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/medhelm/nursedesk/internal/models"
	"github.com/medhelm/nursedesk/internal/storage"
)

// StoreKey is the storage key holding the serialized keyword index: a flat
// JSON object mapping keyword -> target string.
const StoreKey = "keyword-index"

// Entry is one keyword mapping. Keyword keeps its stored case; matching is
// case-insensitive.
type Entry struct {
	Keyword string
	Target  models.TargetRef
}

// Index is an immutable view over one serialized keyword mapping.
// Non-department entries are held in deterministic match order: keyword
// length descending, then lexical ascending, so the most specific keyword
// wins a substring scan and ties are stable across loads.
type Index struct {
	departments map[string]Entry // keyed by lowercased keyword
	entries     []Entry          // non-department only, in match order
	lowered     []string         // lowercased keywords, parallel to entries
	size        int
}

// Parse decodes a serialized keyword index.
func Parse(raw []byte) (*Index, error) {
	var mapping map[string]string
	if err := json.Unmarshal(raw, &mapping); err != nil {
		return nil, fmt.Errorf("parse keyword index: %w", err)
	}

	ix := &Index{
		departments: make(map[string]Entry),
		size:        len(mapping),
	}
	for keyword, raw := range mapping {
		target := models.ParseTarget(raw)
		if target.Kind == models.TargetDepartment {
			ix.departments[strings.ToLower(keyword)] = Entry{Keyword: keyword, Target: target}
			continue
		}
		ix.entries = append(ix.entries, Entry{Keyword: keyword, Target: target})
	}

	sort.Slice(ix.entries, func(i, j int) bool {
		a, b := strings.ToLower(ix.entries[i].Keyword), strings.ToLower(ix.entries[j].Keyword)
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})
	ix.lowered = make([]string, len(ix.entries))
	for i, e := range ix.entries {
		ix.lowered[i] = strings.ToLower(e.Keyword)
	}
	return ix, nil
}

// Load fetches the serialized index from the store and parses it.
func Load(ctx context.Context, store storage.Store) (*Index, error) {
	raw, err := store.Get(ctx, StoreKey)
	if err != nil {
		return nil, fmt.Errorf("load keyword index: %w", err)
	}
	return Parse(raw)
}

// Resolve maps a free-text query to a target reference, or nil on miss.
// An exact (case-insensitive) department keyword match takes priority over
// all keyword scanning, so a user typing exactly a department code is never
// shadowed by an unrelated substring match. Otherwise the first
// non-department keyword contained in the query wins, in match order.
func (ix *Index) Resolve(query string) *models.TargetRef {
	normalized := strings.ToLower(strings.TrimSpace(query))
	if normalized == "" {
		return nil
	}

	if e, ok := ix.departments[normalized]; ok {
		target := e.Target
		return &target
	}
	for i, lowered := range ix.lowered {
		if strings.Contains(normalized, lowered) {
			return &ix.entries[i].Target
		}
	}
	return nil
}

// Search is the bidirectional diagnostic mode: it returns every entry,
// department refs included, whose keyword is contained in the query or
// contains the query. Unlike Resolve it does not stop at the first hit.
func (ix *Index) Search(query string) []Entry {
	normalized := strings.ToLower(strings.TrimSpace(query))
	if normalized == "" {
		return nil
	}

	var hits []Entry
	for lowered, e := range ix.departments {
		if strings.Contains(normalized, lowered) || strings.Contains(lowered, normalized) {
			hits = append(hits, e)
		}
	}
	for i, lowered := range ix.lowered {
		if strings.Contains(normalized, lowered) || strings.Contains(lowered, normalized) {
			hits = append(hits, ix.entries[i])
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Keyword < hits[j].Keyword })
	return hits
}

// Len returns the number of keyword mappings in the index.
func (ix *Index) Len() int { return ix.size }
