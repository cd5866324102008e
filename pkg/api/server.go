// Package api serves layouts over HTTP: encoding, decoding, bit dumps and
// stored records.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ssargent/bitspec/pkg/layout"
	"github.com/ssargent/bitspec/pkg/metrics"
)

const defaultMaxBodyBytes = 1 << 20

// Deps are the collaborators of a Server
type Deps struct {
	Layouts  *layout.Cache
	Store    RecordStore // nil disables the record routes
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer // served on /metrics, nil for the default registry
	Logger   *zap.Logger
}

// Server holds the API server state
type Server struct {
	config  ServerConfig
	layouts *layout.Cache
	store   RecordStore
	metrics *metrics.Metrics
	log     *zap.Logger
	router  http.Handler
}

// NewServer creates a new API server
func NewServer(config ServerConfig, deps Deps) *Server {
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = defaultMaxBodyBytes
	}
	s := &Server{
		config:  config,
		layouts: deps.Layouts,
		store:   deps.Store,
		metrics: deps.Metrics,
		log:     deps.Logger,
	}
	if s.layouts == nil {
		s.layouts = layout.NewCache()
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}

	metricsHandler := promhttp.Handler()
	if deps.Gatherer != nil {
		metricsHandler = promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})
	}
	s.router = s.routes(metricsHandler)
	return s
}

func (s *Server) routes(metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(s.metrics.Middleware)

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", metricsHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiKeyMiddleware(s.config.APIKey, s.metrics))

		r.Get("/health", s.handleHealth)

		r.Get("/layouts", s.handleListLayouts)
		r.Route("/layouts/{name}", func(r chi.Router) {
			r.Get("/", s.handleGetLayout)
			r.Get("/defaults", s.handleDefaults)
			r.Post("/encode", s.handleEncode)
			r.Post("/decode", s.handleDecode)
			r.Post("/dump", s.handleDump)

			r.Post("/records", s.handlePutRecord)
			r.Get("/records", s.handleListRecords)
			r.Get("/records/{id}", s.handleGetRecord)
			r.Delete("/records/{id}", s.handleDeleteRecord)
		})
	})

	return r
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Addr returns the configured listen address
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Bind, strconv.Itoa(s.config.Port))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting bitspec API server",
			zap.String("addr", srv.Addr),
			zap.Strings("layouts", s.layouts.Names()),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("shutting down bitspec API server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
