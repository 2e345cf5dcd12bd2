package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DevRickLin/telegram-relay-bridge/internal/biz/domain"
)

// Server exposes health, metrics and a read-only view of the relay settings
type Server struct {
	settings       *domain.Settings
	defaultChannel int64
	addr           string
	logger         *slog.Logger

	mu     sync.Mutex
	server *http.Server
}

// SettingsView is the /api/settings response body
type SettingsView struct {
	Users          int              `json:"users"`
	Channels       map[string]int64 `json:"channels"`
	Messages       int              `json:"messages"`
	DefaultChannel int64            `json:"default_channel"`
	Revision       uint64           `json:"revision"`
}

// NewServer creates a new API server listening on addr
func NewServer(settings *domain.Settings, defaultChannel int64, addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		settings:       settings,
		defaultChannel: defaultChannel,
		addr:           addr,
		logger:         logger.With("component", "api"),
	}
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/settings", s.handleSettings)
	return mux
}

// Start starts the HTTP server and blocks until it is stopped.
// An empty address disables the server.
func (s *Server) Start() error {
	if s.addr == "" {
		s.logger.Info("http api disabled")
		return nil
	}

	s.mu.Lock()
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	s.logger.Info("starting http server", "addr", s.addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := s.settings.Snapshot()
	s.writeJSON(w, SettingsView{
		Users:          len(snap.Users),
		Channels:       snap.Channels,
		Messages:       len(snap.Messages),
		DefaultChannel: s.defaultChannel,
		Revision:       s.settings.Revision(),
	})
}

// ============ Helpers ============

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("write response failed", "error", err)
	}
}
