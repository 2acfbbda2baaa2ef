package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	logger "log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/chargedesk/internal/health"
	"github.com/vietddude/chargedesk/internal/infra/storage"
)

const requestTimeout = 5 * time.Minute

// Config holds HTTP listener settings.
type Config struct {
	Port        int
	CORSOrigins []string
}

// Server is the HTTP facade over the approval repository and the dashboard.
type Server struct {
	approvals storage.ApprovalRepository
	dashboard Dashboard
	health    *health.Handler
	router    chi.Router
	server    *http.Server
	log       logger.Logger
}

// New builds the router. healthHandler may be nil.
func New(
	cfg Config,
	approvals storage.ApprovalRepository,
	dash Dashboard,
	healthHandler *health.Handler,
) *Server {
	s := &Server{
		approvals: approvals,
		dashboard: dash,
		health:    healthHandler,
		log:       *logger.Default().With("component", "http"),
	}

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)
	// charges wait for confirmation, so the timeout is generous
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Route("/approvals", s.approvalRoutes)
	r.Route("/api/approval", s.approvalRoutes)
	if dash != nil {
		r.Route("/dashboard", s.dashboardRoutes)
	}
	if healthHandler != nil {
		r.Get("/health", healthHandler.Health)
		r.Get("/health/detailed", healthHandler.Detailed)
	}
	r.Handle("/metrics", promhttp.Handler())

	s.router = r
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Stop is called. It blocks.
func (s *Server) Start() error {
	s.log.Info("HTTP server listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop drains in-flight requests.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
