// Package retrieval decides whether user text is a department listing
// request, a specific-document match, or a miss.
package retrieval

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/medhelm/nursedesk/internal/index"
	"github.com/medhelm/nursedesk/internal/knowledge"
	"github.com/medhelm/nursedesk/internal/models"
	"github.com/medhelm/nursedesk/internal/storage"
)

// Lookup outcomes, used for logging and metrics only. The public contract
// stays result-or-nil: callers never see the difference between a miss and
// a failing backend.
const (
	outcomeResolved = "resolved"
	outcomeFallback = "fallback"
	outcomeError    = "error"
)

// Engine is the retrieval decision core. It is best-effort by contract: a
// knowledge-base outage degrades to a miss (generic chat), never an error.
type Engine struct {
	store  storage.Store
	repo   *knowledge.Repository
	logger *zap.Logger
}

// NewEngine creates a retrieval engine over the given store.
func NewEngine(store storage.Store, repo *knowledge.Repository, logger *zap.Logger) *Engine {
	return &Engine{store: store, repo: repo, logger: logger}
}

// GetResponse resolves raw user text to a retrieval result, or nil on miss.
// Single pass, no retries: load index, resolve, fetch. A department hit
// always yields a listing result, even with zero entries, so callers can
// tell an empty department from an unrecognized query.
func (e *Engine) GetResponse(ctx context.Context, queryText string) *models.RetrievalResult {
	ix, err := index.Load(ctx, e.store)
	if err != nil {
		// An index that was never written is an ordinary miss, not an outage.
		if errors.Is(err, storage.ErrNotFound) {
			e.logger.Debug("keyword index not initialized",
				zap.String("outcome", outcomeFallback), zap.Error(err))
		} else {
			e.logger.Error("keyword index unavailable",
				zap.String("outcome", outcomeError), zap.Error(err))
		}
		return nil
	}

	target := ix.Resolve(queryText)
	if target == nil {
		e.logger.Debug("query unresolved",
			zap.String("outcome", outcomeFallback), zap.String("query", queryText))
		return nil
	}

	if target.Kind == models.TargetDepartment {
		entries := e.repo.ListDepartmentEntries(ctx, target.Department)
		e.logger.Debug("department listing",
			zap.String("outcome", outcomeResolved),
			zap.String("department", target.Department),
			zap.Int("entries", len(entries)))
		return &models.RetrievalResult{
			IsDepartmentListing: true,
			Department:          target.Department,
			Entries:             entries,
		}
	}

	doc := e.repo.GetByID(ctx, target.DocumentID)
	if doc == nil {
		// The keyword resolved but the record did not: treat as a miss.
		e.logger.Warn("resolved document missing",
			zap.String("outcome", outcomeError), zap.String("id", target.DocumentID))
		return nil
	}
	e.logger.Debug("document hit",
		zap.String("outcome", outcomeResolved), zap.String("id", doc.ID))
	return &models.RetrievalResult{Document: doc}
}
