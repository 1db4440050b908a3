// Package server wires the chi router and runs the HTTP listener with
// graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meridianwm/backoffice/internal/api/handlers"
	"github.com/meridianwm/backoffice/internal/api/middleware"
	"github.com/meridianwm/backoffice/internal/config"
)

// Server is the back-office HTTP server.
type Server struct {
	httpServer *http.Server
	config     config.ServerConfig
	logger     *slog.Logger
}

// NewRouter builds the full route tree with the middleware chain.
func NewRouter(h *handlers.Handlers, logger *slog.Logger) chi.Router {
	router := chi.NewRouter()
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.Metrics())

	router.Route("/documents", func(r chi.Router) {
		r.Post("/upload", h.Upload)
		r.Get("/list", h.List)
		r.Post("/create-folder", h.CreateFolder)
		r.Post("/move/{id}", h.Move)
		r.Get("/{id}", h.Get)
		r.Patch("/{id}", h.Patch)
		r.Post("/{id}/version", h.UploadVersion)
		r.Get("/{id}/versions", h.Versions)
		r.Post("/{id}/restore", h.Restore)
	})

	router.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.Notifications)
		r.Post("/read-all", h.MarkAllNotificationsRead)
		r.Post("/{id}/read", h.MarkNotificationRead)
	})

	router.Get("/healthz", h.Healthz)
	router.Get("/readyz", h.Readyz)
	router.Handle("/metrics", promhttp.Handler())

	return router
}

// New builds the underlying http.Server around the route tree.
func New(cfg config.ServerConfig, h *handlers.Handlers, logger *slog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      NewRouter(h, logger),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		config: cfg,
		logger: logger,
	}
}

// Run serves until the context is cancelled or SIGINT/SIGTERM arrives, then
// drains in-flight requests within the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening.", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server.")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
