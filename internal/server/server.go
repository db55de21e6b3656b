// Package server provides the HTTP API for NurseDesk: the messaging
// webhook plus diagnostic endpoints.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/medhelm/nursedesk/internal/bot"
	"github.com/medhelm/nursedesk/internal/config"
	"github.com/medhelm/nursedesk/internal/knowledge"
	"github.com/medhelm/nursedesk/internal/session"
	"github.com/medhelm/nursedesk/internal/storage"
)

// Server is the HTTP server for the NurseDesk API.
type Server struct {
	handler  *bot.Handler
	repo     *knowledge.Repository
	sessions *session.Store
	store    storage.Store
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	handler *bot.Handler,
	repo *knowledge.Repository,
	sessions *session.Store,
	store storage.Store,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		handler:  handler,
		repo:     repo,
		sessions: sessions,
		store:    store,
		config:   cfg,
		logger:   logger,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Post("/webhook", s.handleWebhook)
	r.Get("/api/v1/documents/{id}", s.handleGetDocument)
	r.Get("/api/v1/departments/{code}", s.handleDepartmentListing)
	r.Get("/api/v1/search", s.handleSearch)
	r.Get("/api/v1/sessions/{userID}", s.handleGetSession)
	r.Delete("/api/v1/sessions/{userID}", s.handleClearSession)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
