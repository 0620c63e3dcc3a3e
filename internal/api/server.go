package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/SPODhub/mpc3000-snd-player/internal/config"
	"github.com/SPODhub/mpc3000-snd-player/internal/session"
)

// Server handles HTTP API requests.
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	server   *http.Server
	sessions *session.Manager
	hub      *hub
}

// New creates a new API server.
func New(cfg *config.Config, logger *slog.Logger, sessions *session.Manager) *Server {
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		sessions: sessions,
		hub:      newHub(logger),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/healthz", s.handleHealthz)
	mux.HandleFunc("POST /v1/sessions", s.withAuth(s.handleCreateSession))
	mux.HandleFunc("POST /v1/pads", s.withAuth(s.handleUpload))
	mux.HandleFunc("GET /v1/pads", s.withAuth(s.handleListPads))
	mux.HandleFunc("DELETE /v1/pads/{bank}/{pad}", s.withAuth(s.handleDeletePad))
	mux.HandleFunc("GET /v1/disk", s.withAuth(s.handleDisk))
	mux.HandleFunc("GET /v1/events", s.withAuth(s.handleEvents))

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	s.hub.closeAll()
	return s.server.Shutdown(ctx)
}
