package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nullpx/derivterm/internal/config"
	"github.com/nullpx/derivterm/internal/logs"
)

// broadcastInterval is how often a connected /ws client receives a fresh
// snapshot push, absent any finer-grained change-notification from the
// worker's containers.
const broadcastInterval = time.Second

// Server runs the read-only HTTP/WebSocket API: /health, /api/snapshot,
// /ws. Adapted from the teacher's dashboard server — this module's
// "renderer" is out of scope, but the interface it would consume is
// exercised here.
type Server struct {
	provider SnapshotProvider
	manager  *logs.Manager
	hub      *Hub
	handlers *Handlers
	server   *http.Server
	logger   *slog.Logger
	stop     chan struct{}
}

// NewServer creates a new API server for provider's state, reporting
// status from manager.
func NewServer(cfg config.APIConfig, provider SnapshotProvider, manager *logs.Manager, logger *slog.Logger) *Server {
	hub := NewHub(logger)
	handlers := NewHandlers(provider, manager, cfg, hub, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handlers.HandleHealth)
	mux.HandleFunc("/api/snapshot", handlers.HandleSnapshot)
	mux.HandleFunc("/ws", handlers.HandleWebSocket)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		provider: provider,
		manager:  manager,
		hub:      hub,
		handlers: handlers,
		server:   server,
		logger:   logger.With("component", "api-server"),
		stop:     make(chan struct{}),
	}
}

// Start runs the hub, the periodic snapshot broadcaster, and the HTTP
// server. Blocks until Stop is called.
func (s *Server) Start() error {
	go s.hub.Run()
	go s.broadcastLoop()

	s.logger.Info("api server starting", "addr", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop() error {
	s.logger.Info("stopping api server")
	close(s.stop)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

func (s *Server) broadcastLoop() {
	ticker := time.NewTicker(broadcastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			snap := BuildSnapshot(s.provider, s.manager.Status())
			s.hub.BroadcastEvent(NewSnapshotEvent(snap))
		}
	}
}
