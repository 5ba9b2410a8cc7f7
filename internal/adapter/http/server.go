// Package http serves the dashboard over HTTP: health and metrics endpoints
// plus a read-mostly JSON and PNG view of the loaded data.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/casualty-tracker/internal/domain"
	"github.com/couchcryptid/casualty-tracker/internal/events"
	"github.com/couchcryptid/casualty-tracker/internal/loader"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dashboard is the load coordinator surface the server reads and drives.
type Dashboard interface {
	sharedobs.ReadinessChecker
	Series(region domain.Region) (domain.Series, bool)
	ActiveRegion() domain.Region
	SetActiveRegion(ctx context.Context, region domain.Region) error
	LoadForDate(ctx context.Context, region domain.Region, date string) (loader.DateLookup, error)
	Refresh(ctx context.Context) error
}

// CacheClearer drops cached snapshots.
type CacheClearer interface {
	Clear(ctx context.Context, regions ...domain.Region)
}

// DateSelector forwards a historical date selection to the coordinator.
type DateSelector interface {
	Publish(ev events.DateSelected)
}

// Options configures CORS and chart sizing.
type Options struct {
	AllowedOrigins []string
	ChartWindow    int
}

// Server exposes health, readiness, metrics, and dashboard API routes.
type Server struct {
	httpServer *http.Server
	dashboard  Dashboard
	cache      CacheClearer
	dates      DateSelector
	opts       Options
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and /api routes.
func NewServer(addr string, d Dashboard, c CacheClearer, dates DateSelector, opts Options, logger *slog.Logger) *Server {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		dashboard: d,
		cache:     c,
		dates:     dates,
		opts:      opts,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(d))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/regions", s.handleRegions)
		r.Route("/regions/{region}", func(r chi.Router) {
			r.Get("/", s.handleSummary)
			r.Get("/chart", s.handleChart)
			r.Get("/chart.png", s.handleChartPNG)
			r.Get("/history", s.handleHistory)
		})
		r.Post("/active-region", s.handleActiveRegion)
		r.Post("/selected-date", s.handleSelectedDate)
		r.Post("/refresh", s.handleRefresh)
		r.Delete("/cache", s.handleClearCache)
	})

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
