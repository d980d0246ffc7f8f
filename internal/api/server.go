package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	handler "github.com/newthinker/compass/internal/api/handler/api"
	"github.com/newthinker/compass/internal/api/job"
	"github.com/newthinker/compass/internal/api/middleware"
	"github.com/newthinker/compass/internal/api/response"
	"github.com/newthinker/compass/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Service is what the API needs from app.Service.
type Service interface {
	handler.ExplainService
	handler.ValidateService
	handler.ReportService
	GetStats(ctx context.Context) map[string]any
}

// Server represents the HTTP server for COMPASS
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	handler    http.Handler
	cancel     context.CancelFunc
}

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	APIKey      string
	MaxJobs     int
	JobTTL      time.Duration
	MetricsPath string // empty disables /metrics
}

// Dependencies holds the collaborators the routes call.
type Dependencies struct {
	Service Service
	Metrics *metrics.Registry // optional
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if deps.Service == nil {
		return nil, fmt.Errorf("api server requires a service")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 24 * time.Hour
	}

	mux := http.NewServeMux()
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		logger: logger,
		mux:    mux,
		cancel: cancel,
	}

	s.setupRoutes(ctx, cfg, deps)

	var h http.Handler = mux
	if deps.Metrics != nil {
		h = metrics.HTTPMiddleware(deps.Metrics)(h)
	}
	h = metrics.LoggingMiddleware(logger)(h)
	s.handler = h

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(ctx context.Context, cfg Config, deps Dependencies) {
	svc := deps.Service

	var observe handler.JobObserver
	if deps.Metrics != nil {
		observe = deps.Metrics.SetJobsActive
	}

	explain := handler.NewExplainHandler(svc)
	validate := handler.NewValidateHandler(ctx, job.NewStore(cfg.MaxJobs, cfg.JobTTL), svc, observe, s.logger)
	reports := handler.NewReportsHandler(svc)

	v1 := http.NewServeMux()
	v1.HandleFunc("POST /api/v1/explain", explain.Explain)
	v1.HandleFunc("GET /api/v1/explanations", explain.List)
	v1.HandleFunc("GET /api/v1/explanations/{id}", func(w http.ResponseWriter, r *http.Request) {
		explain.GetByID(w, r, r.PathValue("id"))
	})
	v1.HandleFunc("POST /api/v1/validate", validate.Create)
	v1.HandleFunc("GET /api/v1/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		validate.GetStatus(w, r, r.PathValue("id"))
	})
	v1.HandleFunc("GET /api/v1/reports", reports.List)
	v1.HandleFunc("GET /api/v1/reports/{coin}/{id}", func(w http.ResponseWriter, r *http.Request) {
		reports.Get(w, r, r.PathValue("coin"), r.PathValue("id"))
	})

	s.mux.Handle("/api/v1/", middleware.APIKeyAuth(cfg.APIKey)(v1))
	s.mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"stats":  svc.GetStats(r.Context()),
		})
	})

	if deps.Metrics != nil && cfg.MetricsPath != "" {
		s.mux.Handle("GET "+cfg.MetricsPath, promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown stops running jobs and gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	s.cancel()
	return s.httpServer.Shutdown(ctx)
}
