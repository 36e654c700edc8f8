// Package http is the site's API surface: market data, the admin content
// documents, the snapshot stream, and operational endpoints.
package http

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/finsymposium/marketpulse/internal/content"
	"github.com/finsymposium/marketpulse/internal/market"
	"github.com/finsymposium/marketpulse/internal/metrics"
	"github.com/finsymposium/marketpulse/internal/scheduler"
	"github.com/finsymposium/marketpulse/internal/store/github"
	"github.com/finsymposium/marketpulse/internal/stream"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// DefaultServerConfig returns default server configuration. The write
// timeout leaves headroom for the market route's 15s fallback bound.
func DefaultServerConfig() ServerConfig {
	port := 8080
	if portStr := os.Getenv("HTTP_PORT"); portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil {
			port = p
		}
	}
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         port,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Deps are the components the server serves. All are wired at the
// composition root in cmd.
type Deps struct {
	Orchestrator *market.Orchestrator
	Fallback     *market.FallbackGenerator
	Scheduler    *scheduler.Scheduler
	Store        *github.Store
	Hub          *stream.Hub
	Metrics      *metrics.Registry
	Version      string
}

// Server is the HTTP server for the symposium backend.
type Server struct {
	router    *mux.Router
	server    *http.Server
	config    ServerConfig
	deps      Deps
	startTime time.Time
}

// NewServer builds the server and its route table.
func NewServer(config ServerConfig, deps Deps) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		config:    config,
		deps:      deps,
		startTime: time.Now(),
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      s.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
	return s
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)
	s.router.Use(s.corsMiddleware)

	// Preflight requests must match a route or they would skip the CORS
	// middleware entirely; the middleware answers them before this
	// handler runs.
	s.router.PathPrefix("/").Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// The stream route upgrades the connection and must not pass through
	// the JSON or timeout middleware.
	s.router.Handle("/api/market-data/stream", s.deps.Hub).Methods("GET")

	api := s.router.PathPrefix("/").Subrouter()
	api.Use(s.timeoutMiddleware)
	api.Use(s.jsonContentTypeMiddleware)

	api.HandleFunc("/api/ping", s.handlePing).Methods("GET")
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/api/market-data", s.handleMarketData).Methods("GET")

	s.contentRoutes(api, content.DocEvents,
		func() validatable { return &content.EventsDocument{} },
		func() validatable { return content.DefaultEvents() })
	s.contentRoutes(api, content.DocSponsors,
		func() validatable { return &content.SponsorsDocument{} },
		func() validatable { return content.DefaultSponsors() })
	s.contentRoutes(api, content.DocLuminaries,
		func() validatable { return &content.LuminariesDocument{} },
		func() validatable { return content.DefaultLuminaries() })

	s.router.Handle("/metrics", s.deps.Metrics.Handler()).Methods("GET")
	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
}

func (s *Server) contentRoutes(r *mux.Router, name string, empty, defaults func() validatable) {
	h := &documentHandler{
		name:     name,
		store:    s.deps.Store,
		metrics:  s.deps.Metrics,
		empty:    empty,
		defaults: defaults,
	}
	r.HandleFunc("/api/"+name, h.handleGet).Methods("GET")
	r.HandleFunc("/api/"+name, h.handleUpdate).Methods("POST")
	r.HandleFunc("/api/"+name+"/sync", h.handleSync).Methods("GET")
}

// Start runs the server until it fails or Shutdown is called.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("HTTP server starting")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("HTTP server shutting down")
	return s.server.Shutdown(ctx)
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.server.Addr
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"success": false,
		"error":   "not found",
		"path":    r.URL.Path,
	})
}
