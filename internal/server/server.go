// Package server wires the dashboard, the view API and the operational
// endpoints onto one HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"launchdash/docs/schema/openapi"
	"launchdash/internal/adapters/httpapi"
	"launchdash/internal/dashboard"
	"launchdash/internal/launch"
	"launchdash/internal/logging"
	"launchdash/internal/metrics"
	"launchdash/internal/views"
)

// Config holds the server dependencies.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	SliderStep      float64
	Dataset         *launch.Dataset
	Metrics         *metrics.Recorder
}

// Server serves the launch dashboard.
type Server struct {
	cfg     Config
	handler http.Handler
	logger  *slog.Logger
}

// New builds the route table for cfg.Dataset. A nil Metrics gets a fresh
// recorder.
func New(cfg Config) (*Server, error) {
	if cfg.Dataset == nil {
		return nil, errors.New("server: dataset required")
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewRecorder()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	cfg.Metrics.SetDatasetRecords(cfg.Dataset.Len())

	catalog, err := views.NewCatalog(cfg.Dataset, cfg.Metrics, nil)
	if err != nil {
		return nil, fmt.Errorf("build view catalog: %w", err)
	}
	dash, err := dashboard.NewHandler(cfg.Dataset, dashboard.Options{
		SliderStep: cfg.SliderStep,
		Observer:   cfg.Metrics,
		Logger:     logging.New("dashboard"),
	})
	if err != nil {
		return nil, err
	}
	api := httpapi.NewHandler(catalog)

	mux := http.NewServeMux()
	mux.Handle("/", dash)
	mux.Handle(httpapi.Prefix, api)
	mux.Handle(httpapi.Prefix+"/", api)
	mux.HandleFunc(OpenAPIPath, serveOpenAPI)
	mux.Handle("/metrics", cfg.Metrics.Handler())
	mux.HandleFunc("/healthz", healthz(cfg.Dataset))

	logger := logging.New("http")
	return &Server{cfg: cfg, handler: logRequests(logger, mux), logger: logger}, nil
}

// Handler returns the root handler, including request logging.
func (s *Server) Handler() http.Handler { return s.handler }

// Run listens on cfg.Addr until ctx is cancelled and then shuts down
// gracefully within ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run over an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// OpenAPIPath serves the view API description.
const OpenAPIPath = "/api/v1/openapi.yaml"

func serveOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", openapi.ContentType)
	_, _ = w.Write(openapi.ViewsSpec)
}

func healthz(ds *launch.Dataset) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, "{\"status\":\"ok\",\"records\":%d}\n", ds.Len())
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// RequestIDHeader carries the request ID. An incoming value is kept,
// otherwise a random UUID is assigned.
const RequestIDHeader = "X-Request-ID"

func logRequests(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(r.Context(), level, "request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes", rec.bytes,
			"duration", time.Since(start),
		)
	})
}
