package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zoobzio/formz"
	"github.com/zoobzio/formz/pkg/rest"
)

// Exit codes.
const (
	ExitSuccess         = 0
	ExitConfigError     = 1
	ExitCatalogError    = 2
	ExitHTTPServerError = 3
)

// Server serves the catalog API.
type Server struct {
	config     *Config
	catalog    formz.Catalog
	closeFn    func() error
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer opens the catalog, runs the configured import and builds the
// HTTP server.
func NewServer(ctx context.Context, cfg *Config, logger *slog.Logger) (*Server, error) {
	catalog, closeFn, err := openCatalog(ctx, cfg.Catalog)
	if err != nil {
		return nil, &ServerError{Op: "openCatalog", Err: err, ExitCode: ExitCatalogError}
	}
	logger.Info("catalog ready", "backend", cfg.Catalog.Backend)

	if cfg.Import.Dir != "" {
		res, err := importDrafts(ctx, catalog, cfg.Import.Dir, cfg.Import.Timeout, logger)
		if err != nil {
			closeFn()
			return nil, &ServerError{Op: "import", Err: err, ExitCode: ExitCatalogError}
		}
		logger.Info("import complete",
			"dir", cfg.Import.Dir,
			"imported", res.Imported,
			"rejected", res.Rejected,
			"failed", res.Failed,
		)
	}

	s := &Server{
		config:  cfg,
		catalog: catalog,
		closeFn: closeFn,
		logger:  logger,
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      s.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s, nil
}

// Routes returns the root router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Mount(s.config.Server.BasePath, rest.NewHandler(s.catalog, rest.WithLogger(s.logger)).Routes())
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
		)
	})
}

// Start serves until a shutdown signal, ctx cancellation or a listener
// error.
func (s *Server) Start(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server",
			"address", s.config.Server.Address(),
			"base_path", s.config.Server.BasePath)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case sig := <-sigCh:
		s.logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		return &ServerError{Op: "Start", Err: err, ExitCode: ExitHTTPServerError}
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}
	return s.Shutdown(context.Background())
}

// Shutdown stops the HTTP server and closes the catalog.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}
	if err := s.closeFn(); err != nil {
		s.logger.Error("catalog close error", "error", err)
	}

	s.logger.Info("shutdown complete")
	return nil
}

// ServerError carries the exit code for a failed operation.
type ServerError struct {
	Op       string
	Err      error
	ExitCode int
}

func (e *ServerError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ServerError) Unwrap() error {
	return e.Err
}
