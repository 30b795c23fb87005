package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tracelens/trace-diag/internal/config"
)

// Server wraps the HTTP server and its lifecycle helpers.
type Server struct {
	cfg        config.ServerConfig
	httpServer *http.Server
}

// NewServer builds the router and binds the handlers.
func NewServer(cfg config.ServerConfig, logger *slog.Logger, service AnalysisAPI) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	h := &handlers{logger: logger, service: service}
	r.Get("/healthz", h.health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyses", h.analyze)
		r.Get("/analyses", h.listReports)
		r.Get("/analyses/{id}", h.getReport)
		r.Get("/recurring", h.recurring)
	})

	return &Server{
		cfg: cfg,
		httpServer: &http.Server{
			Addr:         cfg.Address,
			Handler:      r,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
	}
}

// Start serves requests until Shutdown is invoked.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the root handler (useful for tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// GracefulTimeout returns the configured graceful timeout duration.
func (s *Server) GracefulTimeout() time.Duration {
	return s.cfg.GracefulTimeout
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Duration("elapsed", time.Since(start)))
		})
	}
}
