// Package ingest loads knowledge-base source files into the document store
// and maintains the keyword index.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/medhelm/nursedesk/internal/extract"
	"github.com/medhelm/nursedesk/internal/index"
	"github.com/medhelm/nursedesk/internal/knowledge"
	"github.com/medhelm/nursedesk/internal/models"
	"github.com/medhelm/nursedesk/internal/storage"
)

// frontMatter is the optional YAML header of .md/.txt sources:
//
//	---
//	id: icu-cvvh-setup
//	department: icu
//	keywords: [cvvh, dialysis]
//	imageUrl: https://...
//	---
type frontMatter struct {
	ID              string   `yaml:"id"`
	Department      string   `yaml:"department"`
	Keywords        []string `yaml:"keywords"`
	ImageURL        string   `yaml:"imageUrl"`
	VideoURL        string   `yaml:"videoUrl"`
	VideoPreviewURL string   `yaml:"videoPreviewUrl"`
}

// Ingester writes documents and index entries. It is the only writer of
// the knowledge namespace; the bot side never mutates it.
type Ingester struct {
	store     storage.Store
	extractor *extract.Extractor
	logger    *zap.Logger
}

// NewIngester creates an ingester over the given store.
func NewIngester(store storage.Store, logger *zap.Logger) *Ingester {
	return &Ingester{store: store, extractor: extract.NewExtractor(), logger: logger}
}

// IngestFile extracts, stores, and indexes one source file. department is
// the fallback department code when the front matter names none. Returns
// the stored document id.
func (g *Ingester) IngestFile(ctx context.Context, path, department string) (string, error) {
	text, err := g.extractor.Extract(path)
	if err != nil {
		return "", fmt.Errorf("ingest %s: %w", path, err)
	}

	var fm frontMatter
	body := text
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".md" || ext == ".txt" {
		fm, body, err = splitFrontMatter(text)
		if err != nil {
			return "", fmt.Errorf("ingest %s: %w", path, err)
		}
	}
	if fm.Department != "" {
		department = fm.Department
	}

	doc := models.KnowledgeDocument{
		ID:              fm.ID,
		Keywords:        fm.Keywords,
		Text:            strings.TrimSpace(body),
		ImageURL:        fm.ImageURL,
		VideoURL:        fm.VideoURL,
		VideoPreviewURL: fm.VideoPreviewURL,
	}
	if doc.ID == "" {
		doc.ID = department + "-" + Slug(baseName(path))
	}
	if len(doc.Keywords) == 0 {
		doc.Keywords = defaultKeywords(doc)
	}

	if err := g.Put(ctx, &doc, department); err != nil {
		return "", err
	}
	g.logger.Info("ingested document",
		zap.String("path", path), zap.String("id", doc.ID),
		zap.Strings("keywords", doc.Keywords))
	return doc.ID, nil
}

// IngestDir ingests every matching file under dir. Individual file
// failures are logged and skipped; the count of ingested files is returned.
func (g *Ingester) IngestDir(ctx context.Context, dir, department string, extensions []string, recursive bool) (int, error) {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != dir {
				return fs.SkipDir
			}
			return nil
		}
		if !matchesExtension(path, extensions) {
			return nil
		}
		if _, err := g.IngestFile(ctx, path, department); err != nil {
			g.logger.Warn("skipping file", zap.String("path", path), zap.Error(err))
			return nil
		}
		count++
		return nil
	})
	return count, err
}

// Put stores the document wire record and merges its keywords into the
// keyword index. The department code itself is registered as a department
// keyword so listing requests resolve.
func (g *Ingester) Put(ctx context.Context, doc *models.KnowledgeDocument, department string) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document %s: %w", doc.ID, err)
	}
	if err := g.store.Put(ctx, knowledge.Key(doc.ID), raw); err != nil {
		return fmt.Errorf("store document %s: %w", doc.ID, err)
	}

	updates := make(map[string]string, len(doc.Keywords)+1)
	for _, keyword := range doc.Keywords {
		updates[keyword] = doc.ID
	}
	if department != "" {
		updates[department] = models.TargetRef{
			Kind: models.TargetDepartment, Department: department,
		}.Encode()
	}
	return g.updateIndex(ctx, func(mapping map[string]string) {
		for k, v := range updates {
			mapping[k] = v
		}
	})
}

// Remove deletes a document and every index entry pointing at it.
func (g *Ingester) Remove(ctx context.Context, id string) error {
	if err := g.store.Delete(ctx, knowledge.Key(id)); err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	return g.updateIndex(ctx, func(mapping map[string]string) {
		for k, v := range mapping {
			if v == id {
				delete(mapping, k)
			}
		}
	})
}

// updateIndex applies a read-modify-write to the serialized keyword index.
// An absent index starts empty; a malformed one is an error, since losing
// mappings silently would be worse than failing the ingest.
func (g *Ingester) updateIndex(ctx context.Context, mutate func(map[string]string)) error {
	mapping := make(map[string]string)
	raw, err := g.store.Get(ctx, index.StoreKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		// first ingest
	case err != nil:
		return fmt.Errorf("load keyword index: %w", err)
	default:
		if err := json.Unmarshal(raw, &mapping); err != nil {
			return fmt.Errorf("parse keyword index: %w", err)
		}
	}

	mutate(mapping)

	out, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("marshal keyword index: %w", err)
	}
	return g.store.Put(ctx, index.StoreKey, out)
}

// splitFrontMatter separates an optional leading YAML block from the body.
func splitFrontMatter(text string) (frontMatter, string, error) {
	var fm frontMatter
	if !strings.HasPrefix(text, "---\n") {
		return fm, text, nil
	}
	rest := text[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return fm, text, errors.New("unterminated front matter")
	}
	if err := yaml.Unmarshal([]byte(rest[:end]), &fm); err != nil {
		return fm, text, fmt.Errorf("parse front matter: %w", err)
	}
	body := rest[end+len("\n---"):]
	body = strings.TrimPrefix(body, "\n")
	return fm, body, nil
}

// defaultKeywords derives keywords when the source names none: the
// document title when present, otherwise the id slug.
func defaultKeywords(doc models.KnowledgeDocument) []string {
	title := knowledge.Title(doc.Text)
	if title != "" && title != "untitled entry" {
		return []string{strings.ToLower(title)}
	}
	return []string{strings.ReplaceAll(doc.ID, "-", " ")}
}

// Slug lowercases s and folds every run of non-alphanumerics into a "-".
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func matchesExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}
