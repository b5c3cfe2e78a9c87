// Package api embeds the local HTTP server: run control under
// /api/runs and the WebSocket stream under /ws.
package api

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/evopti/chargepilot/api/runs"
	"github.com/evopti/chargepilot/api/stream"
	"github.com/evopti/chargepilot/core/runlog"
	"github.com/evopti/chargepilot/infra/logger"
	"github.com/evopti/chargepilot/internal/eventbus"
)

// Config selects whether and where the embedded server listens.
type Config struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
	// AuthToken guards the /api/runs endpoints when non-empty. The
	// WebSocket stream is read-only and stays open.
	AuthToken string `json:"auth_token"`
}

// SetDefaults fills the listen address.
func (c *Config) SetDefaults() {
	if c.Addr == "" {
		c.Addr = "127.0.0.1:8089"
	}
}

// Server wires the run handler, the stream hub and the event
// broadcaster onto one mux.
type Server struct {
	mu   sync.RWMutex
	addr string

	mux         *http.ServeMux
	hub         *stream.Hub
	broadcaster *stream.Broadcaster
	bus         *eventbus.Bus
	log         logger.Logger
}

// NewServer builds the server. ctx bounds runs started over the API;
// pass the service context, not a request-scoped one.
func NewServer(ctx context.Context, cfg Config, ctrl runs.Controller, store runlog.Store, bus *eventbus.Bus) *Server {
	log := logger.New("api-server")
	hub := stream.NewHub(logger.New("stream-hub"))

	mux := http.NewServeMux()
	runHandler := runs.NewHandler(ctx, ctrl, store, cfg.AuthToken)
	mux.Handle("/api/runs", runHandler)
	mux.Handle("/api/runs/", runHandler)
	mux.Handle("/ws", stream.NewHandler(hub, ctrl.Status, logger.New("stream-handler")))

	return &Server{
		addr:        cfg.Addr,
		mux:         mux,
		hub:         hub,
		broadcaster: stream.NewBroadcaster(hub, logger.New("stream-broadcaster")),
		bus:         bus,
		log:         log,
	}
}

// Addr returns the bound listen address once Start has bound it.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Start listens and serves until ctx is cancelled. It blocks; run it
// in a goroutine.
func (s *Server) Start(ctx context.Context) error {
	s.mu.RLock()
	addr := s.addr
	s.mu.RUnlock()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	srv := &http.Server{Handler: s.mux}

	go s.broadcaster.Run(ctx, s.bus)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api server shutdown: %v", err)
		}
	}()

	s.log.Infof("api server listening on %s", s.Addr())
	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Handler exposes the composed mux for tests and embedding.
func (s *Server) Handler() http.Handler { return s.mux }
