package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/medhelm/nursedesk/internal/index"
	"github.com/medhelm/nursedesk/internal/models"
	"github.com/medhelm/nursedesk/internal/storage"
)

// signatureHeader carries the base64 HMAC-SHA256 of the raw webhook body,
// keyed with the channel secret.
const signatureHeader = "X-Signature"

type webhookRequest struct {
	Events []models.InboundEvent `json:"events"`
}

type webhookResult struct {
	UserID  string         `json:"userId"`
	Replies []models.Reply `json:"replies"`
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	if secret := s.config.Server.ChannelSecret; secret != "" {
		if !verifySignature(secret, body, r.Header.Get(signatureHeader)) {
			s.logger.Warn("webhook signature mismatch")
			s.respondError(w, http.StatusForbidden, "invalid signature")
			return
		}
	}

	var req webhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	results := make([]webhookResult, 0, len(req.Events))
	for _, event := range req.Events {
		if event.UserID == "" {
			continue
		}
		replies := s.handler.HandleEvent(r.Context(), event)
		results = append(results, webhookResult{UserID: event.UserID, Replies: replies})
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// verifySignature checks the base64 HMAC-SHA256 of body against signature.
func verifySignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc := s.repo.GetByID(r.Context(), id)
	if doc == nil {
		s.respondError(w, http.StatusNotFound, "document not found")
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDepartmentListing(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	entries := s.repo.ListDepartmentEntries(r.Context(), code)
	s.respondJSON(w, http.StatusOK, models.RetrievalResult{
		IsDepartmentListing: true,
		Department:          code,
		Entries:             entries,
	})
}

type searchMatch struct {
	Keyword string `json:"keyword"`
	Target  string `json:"target"`
}

// handleSearch is the diagnostic bidirectional index search: it reports
// every keyword containing, or contained in, the query. Unlike the bot
// path it surfaces backend failures instead of degrading.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	ix, err := index.Load(r.Context(), s.store)
	if err != nil {
		s.logger.Error("search: index load failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "keyword index unavailable")
		return
	}

	hits := ix.Search(query)
	matches := make([]searchMatch, 0, len(hits))
	for _, hit := range hits {
		matches = append(matches, searchMatch{Keyword: hit.Keyword, Target: hit.Target.Encode()})
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"matches": matches,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	history := s.sessions.History(userID)
	if history == nil {
		history = []models.HistoryEntry{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"userId":  userID,
		"history": history,
	})
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	s.sessions.Clear(userID)
	s.respondJSON(w, http.StatusOK, map[string]string{"userId": userID, "status": "cleared"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docCount := len(s.repo.ListIDs(ctx))

	indexSize := 0
	if ix, err := index.Load(ctx, s.store); err == nil {
		indexSize = ix.Len()
	}

	resp := map[string]interface{}{
		"documents":  docCount,
		"index_size": indexSize,
	}
	if path := s.config.Storage.DatabasePath; path != "" {
		if diskBytes, err := storage.DiskUsageBytes(path); err == nil {
			resp["disk_usage_bytes"] = diskBytes
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
