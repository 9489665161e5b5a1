// Package httpserver wires the ImageBuilder API onto a single listener.
package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/imagebuilder/internal/metrics"
	handlers "git.home.luguber.info/inful/imagebuilder/internal/server/handlers"
	smw "git.home.luguber.info/inful/imagebuilder/internal/server/middleware"
)

// Options carries the collaborators the API server exposes.
type Options struct {
	// Service runs build requests; Engine answers availability probes.
	Service handlers.BuildService
	Engine  handlers.EngineStatus
	// ScratchRoot is the directory whose filesystem the health probe reports.
	ScratchRoot string
	// Registry enables the Prometheus endpoint when non-nil.
	Registry *prom.Registry
}

// Server manages the HTTP API endpoints.
type Server struct {
	addr   string
	server *http.Server
	router *chi.Mux
}

// New constructs the API server and its route table.
func New(addr string, opts Options) *Server {
	monitoringHandlers := handlers.NewMonitoringHandlers(opts.Engine, opts.ScratchRoot)
	buildHandlers := handlers.NewBuildHandlers(opts.Service)

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(smw.Chain(slog.Default()))

	router.Get("/", monitoringHandlers.HandleStatus)
	router.Get("/health", monitoringHandlers.HandleHealth)
	router.Post("/build", buildHandlers.HandleBuild)
	if opts.Registry != nil {
		router.Method(http.MethodGet, "/metrics", metrics.HTTPHandler(opts.Registry))
	}

	return &Server{
		addr:   addr,
		router: router,
		server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
			// No WriteTimeout: the build endpoint answers only after an
			// image build that legitimately runs for minutes. The pipeline
			// timeout bounds request duration instead.
		},
	}
}

// Handler exposes the route table for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start binds the listen address and begins serving. The port is bound
// before returning so startup failures surface here instead of as a log
// line from the serve goroutine.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("http startup failed: %w", err)
	}

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("API server error", "error", err)
		}
	}()

	slog.Info("HTTP server started", slog.String("addr", s.addr))
	return nil
}

// Stop gracefully shuts down the server, waiting for in-flight builds up to
// the context deadline.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	slog.Info("HTTP server stopped")
	return nil
}
