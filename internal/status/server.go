// Package status exposes the health/status surface over HTTP: a liveness
// probe and a JSON snapshot of the bot's state for external monitoring.
package status

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gamestr/scorestr/internal/bot"
	"github.com/gamestr/scorestr/internal/config"
	"github.com/gamestr/scorestr/internal/ops"
)

// Server serves /healthz and /status.
type Server struct {
	config      *config.Status
	engine      *bot.Engine
	diagnostics *ops.DiagnosticsCollector
	logger      *ops.Logger

	listener net.Listener
	httpSrv  *http.Server
}

// response is the /status payload.
type response struct {
	Bot    bot.Snapshot   `json:"bot"`
	System ops.SystemStats `json:"system"`
}

// New creates a status server.
func New(cfg *config.Status, engine *bot.Engine, logger *ops.Logger) *Server {
	return &Server{
		config:      cfg,
		engine:      engine,
		diagnostics: ops.NewDiagnosticsCollector(),
		logger:      logger.WithComponent("status"),
	}
}

// Start begins listening. It returns once the listener is bound; serving
// happens in the background.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Bind, s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind status server: %w", err)
	}
	s.listener = listener

	router := chi.NewRouter()
	router.Get("/healthz", s.handleHealthz)
	router.Get("/status", s.handleStatus)

	s.httpSrv = &http.Server{
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("status server stopped", "error", err)
		}
	}()

	s.logger.Info("status server listening", "addr", addr)
	return nil
}

// Stop closes the listener.
func (s *Server) Stop() error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Close()
}

// Addr returns the bound address, useful when port 0 was configured.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	payload := response{
		Bot:    s.engine.Status(),
		System: s.diagnostics.CollectSystemStats(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode status response", "error", err)
	}
}
