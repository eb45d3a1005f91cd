// Package server provides the HTTP API for the medrag engine.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/arogyamitra/medrag/internal/answer"
	"github.com/arogyamitra/medrag/internal/config"
	"github.com/arogyamitra/medrag/internal/ingest"
	"github.com/arogyamitra/medrag/internal/session"
	"go.uber.org/zap"
)

// Server is the HTTP server for the medrag API.
type Server struct {
	orchestrator *answer.Orchestrator
	ingestor     *ingest.Ingestor
	store        *session.Store
	config       *config.ServerConfig
	logger       *zap.Logger
	server       *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	orchestrator *answer.Orchestrator,
	ingestor *ingest.Ingestor,
	store *session.Store,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		orchestrator: orchestrator,
		ingestor:     ingestor,
		store:        store,
		config:       cfg,
		logger:       logger,
	}
}

// Router builds the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/sessions/{sessionID}/documents", s.handleIngest)
	r.Post("/api/v1/sessions/{sessionID}/answers", s.handleAsk)
	r.Get("/api/v1/sessions/{sessionID}", s.handleSessionStats)
	r.Delete("/api/v1/sessions/{sessionID}", s.handleCloseSession)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
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
