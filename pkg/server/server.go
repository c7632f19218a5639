// Package server exposes docmap over HTTP.
//
// Routes:
//
//	GET  /healthz                            liveness and build version
//	GET  /metrics                            Prometheus metrics, when configured
//	POST /api/render                         styled edges and node boxes for a posted canvas
//	POST /api/export                         one export document for a posted canvas
//	GET  /api/maps/{mapID}/edges             styled edges of a stored map or view
//	GET  /api/maps/{mapID}/export            export document of a stored map or view
//	GET  /api/node-types/{type}/handles      anchor handles of a node type
//	GET  /api/node-types/{type}/size         sizing rule of a node type
//	GET  /api/node-types.css                 typography classes for node components
//
// Errors are JSON bodies carrying the machine code from pkg/errors; the
// status comes from errors.HTTPStatus.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/docmap/pkg/pipeline"
	"github.com/matzehuels/docmap/pkg/store"
	"github.com/matzehuels/docmap/pkg/style"
)

// DefaultMaxBodyBytes bounds request bodies when no limit is configured.
const DefaultMaxBodyBytes = 8 << 20

// Server serves the API. It is safe for concurrent use.
type Server struct {
	runner    *pipeline.Runner
	store     store.Source
	metrics   http.Handler
	logger    *log.Logger
	registry  *style.Registry
	themeHash string
	maxBody   int64
	validate  *validator.Validate
}

// Option configures a Server.
type Option func(*Server)

// WithStore serves stored maps from src. Without a store the map routes
// answer 501.
func WithStore(src store.Source) Option {
	return func(s *Server) { s.store = src }
}

// WithMetrics mounts h on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithTheme styles every response with reg. hash identifies the theme in
// cache keys.
func WithTheme(reg *style.Registry, hash string) Option {
	return func(s *Server) { s.registry, s.themeHash = reg, hash }
}

// WithMaxBodyBytes bounds request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// New creates a server exporting through runner.
func New(runner *pipeline.Runner, opts ...Option) *Server {
	s := &Server{
		runner:   runner,
		logger:   log.New(io.Discard),
		registry: style.Default(),
		maxBody:  DefaultMaxBodyBytes,
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.recoverer)
	r.Use(s.accessLog)
	r.Use(httpHooks)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.limitBody)
			r.Post("/render", s.handleRender)
			r.Post("/export", s.handleExport)
		})
		r.Get("/maps/{mapID}/edges", s.handleMapEdges)
		r.Get("/maps/{mapID}/export", s.handleMapExport)
		r.Get("/node-types/{type}/handles", s.handleHandles)
		r.Get("/node-types/{type}/size", s.handleSize)
		r.Get("/node-types.css", s.handleStyleSheet)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, r, notFound(r.URL.Path))
	})
	return r
}

// Timeouts configures ListenAndServe.
type Timeouts struct {
	Read     time.Duration
	Write    time.Duration
	Shutdown time.Duration
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within t.Shutdown.
func (s *Server) ListenAndServe(ctx context.Context, addr string, t Timeouts) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadTimeout:       t.Read,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      t.Write,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdown := t.Shutdown
	if shutdown <= 0 {
		shutdown = 10 * time.Second
	}
	sctx, cancel := context.WithTimeout(context.Background(), shutdown)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
