// Package server provides the HTTP API for Osusume.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/hyperjump/osusume/internal/assets"
	"github.com/hyperjump/osusume/internal/catalog"
	"github.com/hyperjump/osusume/internal/config"
	"github.com/hyperjump/osusume/internal/metrics"
	"github.com/hyperjump/osusume/internal/recommend"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server is the HTTP server for the Osusume API.
type Server struct {
	service  *recommend.Service
	products *catalog.ProductCatalog
	images   *assets.Resolver
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	started  time.Time
	stale    atomic.Bool
}

// NewServer creates a server with the given dependencies. products and images may be nil.
func NewServer(
	service *recommend.Service,
	products *catalog.ProductCatalog,
	images *assets.Resolver,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		service:  service,
		products: products,
		images:   images,
		config:   cfg,
		logger:   logger,
		started:  time.Now(),
	}
}

// MarkStale records that an artifact changed on disk. The loaded index keeps
// serving; only a restart picks up the new artifact.
func (s *Server) MarkStale() {
	if !s.stale.Swap(true) {
		metrics.SetStale(true)
	}
}

// Stale reports whether MarkStale has been called.
func (s *Server) Stale() bool { return s.stale.Load() }

// Router builds the HTTP handler with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if s.config.Debug {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)
	if s.config.Server.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.config.Server.RequestTimeout))
	}
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if n := s.config.Server.RateLimitPerMinute; n > 0 {
			r.Use(httprate.LimitByIP(n, time.Minute))
		}
		r.Post("/get_recommendation", s.handleGetRecommendation)
		r.Post("/get_search", s.handleGetSearch)

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/status", s.handleStatus)
			r.Post("/search", s.handleSearch)
			r.Get("/products/{sku}", s.handleGetProduct)
			r.Get("/products/{sku}/similar", s.handleSimilar)
			r.Get("/products/{sku}/image", s.handleImage)
		})
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// instrument counts requests by route pattern and status code.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordHTTPRequest(r.Method, route, status)
	})
}
