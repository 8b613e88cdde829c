package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tjfontaine/advisor-gateway/internal/auth"
)

// Config holds the HTTP surface settings.
type Config struct {
	Port               int
	CORSOrigins        []string
	RateLimitPerMinute int
	RequestTimeout     time.Duration
}

type Server struct {
	Router     *chi.Mux
	Port       int
	logger     *slog.Logger
	rateLimit  int
	httpServer *http.Server
}

func New(cfg Config, logger *slog.Logger, verifier *auth.Verifier) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Apply middleware in order
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(CORSMiddleware(cfg.CORSOrigins))
	r.Use(AuthMiddleware(verifier))
	r.Use(TimeoutMiddleware(cfg.RequestTimeout))
	r.Use(middleware.Recoverer)

	// Wrap with OpenTelemetry HTTP instrumentation
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "advisor-gateway")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	return &Server{
		Router:    r,
		Port:      cfg.Port,
		logger:    logger,
		rateLimit: cfg.RateLimitPerMinute,
	}
}

// Mount registers API routes behind the per-IP rate limiter.
func (s *Server) Mount(register func(r chi.Router)) {
	s.Router.Group(func(r chi.Router) {
		r.Use(RateLimitMiddleware(s.rateLimit))
		register(r)
	})
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("starting server", slog.Int("port", s.Port))
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
