// Package server exposes the import, layout and tree store operations over
// HTTP.
//
// Routes:
//
//	POST   /v1/import?format=json|yaml|toml|csv   raw payload -> document + warnings
//	POST   /v1/layout?kind=vertical|horizontal|radial   document -> layout document
//	GET    /v1/trees                              list stored trees
//	POST   /v1/trees                              store a tree under a new id
//	PUT    /v1/trees/{id}                         store or replace a tree
//	GET    /v1/trees/{id}                         load a tree
//	DELETE /v1/trees/{id}                         delete a tree
//	GET    /v1/trees/{id}/layout?kind=            layout of a stored tree
//	GET    /v1/trees/{id}/render?kind=&format=    svg or dot preview
//	GET    /healthz                               liveness and build info
//
// Errors are returned as {"code": ..., "message": ...} with the status
// chosen by the error code.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/pipeline"
	"github.com/matzehuels/kintree/pkg/store"
)

// Defaults for Config.
const (
	DefaultAddr         = ":8080"
	DefaultMaxBodyBytes = 10 << 20
	shutdownTimeout     = 10 * time.Second
)

// Config configures the server.
type Config struct {
	Addr         string        `toml:"addr"`
	MaxBodyBytes int64         `toml:"max_body_bytes"`
	Layout       layout.Config `toml:"-"`
}

// Server serves the HTTP API.
type Server struct {
	runner *pipeline.Runner
	store  store.Store
	logger *log.Logger
	cfg    Config
}

// New creates a server. Zero config fields fall back to defaults.
func New(runner *pipeline.Runner, st store.Store, logger *log.Logger, cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if logger == nil {
		logger = log.Default()
	}
	if st == nil {
		st = store.NewMemory()
	}
	return &Server{runner: runner, store: st, logger: logger, cfg: cfg}
}

// Handler returns the router with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/healthz", s.healthz)

	r.Route("/v1", func(r chi.Router) {
		r.Use(limitBody(s.cfg.MaxBodyBytes))

		r.Post("/import", s.importPayload)
		r.Post("/layout", s.computeLayout)

		r.Route("/trees", func(r chi.Router) {
			r.Get("/", s.listTrees)
			r.Post("/", s.createTree)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getTree)
				r.Put("/", s.putTree)
				r.Delete("/", s.deleteTree)
				r.Get("/layout", s.treeLayout)
				r.Get("/render", s.renderTree)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondMessage(w, http.StatusNotFound, "NOT_FOUND", "no route for "+r.URL.Path)
	})
	return r
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
