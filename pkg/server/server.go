// Package server provides the HTTP governance API in front of the Governor.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/nadi-pro/browser/pkg/config"
	"github.com/nadi-pro/browser/pkg/governor"
	"github.com/nadi-pro/browser/pkg/server/middleware"
	"github.com/nadi-pro/browser/pkg/telemetry/health"
	"github.com/nadi-pro/browser/pkg/telemetry/logging"
	"github.com/nadi-pro/browser/pkg/telemetry/metrics"
	"github.com/nadi-pro/browser/pkg/telemetry/tracing"
)

// Server is the HTTP governance API.
type Server struct {
	config    config.ServerConfig
	telemetry config.TelemetryConfig

	gov       *governor.Governor
	collector *metrics.Collector
	checker   *health.Checker
	tracer    *tracing.Tracer
	logger    *logging.Logger
	version   health.VersionInfo

	handler      http.Handler
	httpServer   *http.Server
	listener     net.Listener
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records request metrics and serves them at the configured
// metrics path.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) { s.collector = c }
}

// WithHealth serves the probe endpoints backed by c.
func WithHealth(c *health.Checker) Option {
	return func(s *Server) { s.checker = c }
}

// WithTracer instruments requests with spans from t.
func WithTracer(t *tracing.Tracer) Option {
	return func(s *Server) { s.tracer = t }
}

// WithLogger sets the request logger. Requests are not logged without one.
func WithLogger(l *logging.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithVersion sets the build information served at the version path.
func WithVersion(info health.VersionInfo) Option {
	return func(s *Server) { s.version = info }
}

// New creates a server for gov. The handler chain is built once, so the
// server and telemetry sections of cfg are read here and never again.
func New(cfg *config.Config, gov *governor.Governor, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("server: configuration is required")
	}
	if gov == nil {
		return nil, fmt.Errorf("server: governor is required")
	}

	s := &Server{
		config:    cfg.Server,
		telemetry: cfg.Telemetry,
		gov:       gov,
		version:   health.NewVersionInfo("dev", "", ""),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		l, err := logging.New(logging.Config{Writer: io.Discard})
		if err != nil {
			return nil, err
		}
		s.logger = l
	}

	s.handler = s.setupRoutes()
	return s, nil
}

// Start listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:        s.handler,
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
		BaseContext:    func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	s.isRunning = true
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting governance API", "address", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err, ok := <-errChan:
		if ok {
			s.markStopped()
			return err
		}
		return nil
	}
}

// Shutdown gracefully shuts down the server within the configured
// shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.RLock()
		running := s.isRunning
		srv := s.httpServer
		s.mu.RUnlock()
		if !running {
			return
		}

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.markStopped()
		s.logger.Info("governance API stopped")
	})

	return shutdownErr
}

func (s *Server) markStopped() {
	s.mu.Lock()
	s.isRunning = false
	s.mu.Unlock()
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the address the server listens on, or "" before Start.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Handler returns the configured HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// setupRoutes registers the API and telemetry routes and wraps them in the
// middleware chain, outermost first: recovery, logging, request ID, CORS,
// rate limit, body limit, otelhttp, trace context.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/scrub", s.handleScrub)
	mux.HandleFunc("POST /v1/detect", s.handleDetect)
	mux.HandleFunc("POST /v1/sample", s.handleSample)
	mux.HandleFunc("POST /v1/sample/force", s.handleForceSample)
	mux.HandleFunc("POST /v1/session", s.handleSession)
	mux.HandleFunc("GET /v1/trace/headers", s.handleTraceHeaders)
	mux.HandleFunc("POST /v1/trace/parse", s.handleTraceParse)
	mux.HandleFunc("GET /v1/status", s.handleStatus)

	if s.collector != nil && s.telemetry.Metrics.Enabled {
		mux.Handle("GET "+s.telemetry.Metrics.Path, s.collector.Handler())
	}
	if s.checker != nil {
		health.Mount(mux, s.checker, s.telemetry.Health, s.version)
	}

	var handler http.Handler = middleware.RouteMiddleware(mux)

	handler = tracing.HTTPMiddleware(handler)
	if s.tracer != nil && s.tracer.Enabled() {
		handler = otelhttp.NewHandler(handler, "nadi.api",
			otelhttp.WithTracerProvider(s.tracer.Provider()),
			otelhttp.WithPropagators(tracing.Propagator()),
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	}

	handler = middleware.MaxBodyMiddleware(s.config.MaxBodyBytes)(handler)
	handler = middleware.RateLimitMiddleware(s.config.RateLimit, s.collector)(handler)
	handler = middleware.CORSMiddleware(s.config.CORS)(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.LoggingMiddleware(s.logger, s.collector)(handler)
	handler = middleware.RecoveryMiddleware(s.logger)(handler)

	return handler
}
