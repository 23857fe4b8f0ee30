// Package webui serves generated treemap reports over HTTP.
package webui

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fardiff/internal/repository"
	"github.com/fardiff/pkg/utils"
)

// Server browses the reports under a data directory.
type Server struct {
	dataDir string
	addr    string
	logger  utils.Logger
	history repository.RunRepository
	router  chi.Router
	server  *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithHistory exposes the run history under /api/runs.
func WithHistory(repo repository.RunRepository) Option {
	return func(s *Server) {
		s.history = repo
	}
}

// NewServer creates a server for dataDir listening on addr, e.g. ":8080".
func NewServer(dataDir, addr string, logger utils.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = &utils.NullLogger{}
	}
	s := &Server{
		dataDir: dataDir,
		addr:    addr,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Get("/api/reports", s.handleListReports)
	r.Get("/api/runs", s.handleListRuns)
	r.Get("/api/runs/{runID}", s.handleGetRun)

	files := http.StripPrefix("/reports/", http.FileServer(http.Dir(s.dataDir)))
	r.Get("/reports/*", files.ServeHTTP)

	s.router = r
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("Starting report server at http://localhost%s", s.addr)
	s.logger.Info("Serving reports from: %s", s.dataDir)
	s.logger.Info("Press Ctrl+C to stop")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
