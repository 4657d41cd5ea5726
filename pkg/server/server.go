// Package server provides the HTTP exposition server for the metrics generator.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/getmockd/metricsd/pkg/config"
	"github.com/getmockd/metricsd/pkg/logging"
	"github.com/getmockd/metricsd/pkg/metrics"
)

// shutdownTimeout bounds graceful shutdown on Stop.
const shutdownTimeout = 5 * time.Second

// Server serves the Prometheus text exposition plus health and
// readiness probes.
type Server struct {
	cfg        *config.Config
	registry   *metrics.Registry
	log        *slog.Logger
	instanceID string

	httpServer *http.Server
	listener   net.Listener

	mu        sync.RWMutex
	running   bool
	startTime time.Time
}

// Option is a functional option for configuring a Server.
type Option func(*Server)

// WithLogger sets the operational logger for the server.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithRegistry sets the metric registry the server exposes.
func WithRegistry(registry *metrics.Registry) Option {
	return func(s *Server) {
		if registry != nil {
			s.registry = registry
		}
	}
}

// New creates a Server for the given configuration. Without
// WithRegistry a fresh registry with the three built-in metrics is
// used.
func New(cfg *config.Config, opts ...Option) *Server {
	if cfg == nil {
		cfg = config.Default()
	}

	s := &Server{
		cfg:        cfg,
		log:        logging.Nop(),
		instanceID: uuid.NewString(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.registry == nil {
		s.registry = metrics.New()
	}

	return s
}

// Registry returns the metric registry the server exposes.
func (s *Server) Registry() *metrics.Registry {
	return s.registry
}

// InstanceID returns the unique identifier for this server instance.
func (s *Server) InstanceID() string {
	return s.instanceID
}

// SetLogger sets the operational logger for the server.
func (s *Server) SetLogger(log *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if log != nil {
		s.log = log
	} else {
		s.log = logging.Nop()
	}
}

// Start binds the listen port and begins serving. The bind happens
// synchronously so a port conflict is reported here, before any
// goroutine runs. Serving continues in the background until Stop.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	mux := http.NewServeMux()

	metricsHandler := s.registry.Handler()
	if s.cfg.SelfMetrics {
		metricsHandler = promhttp.InstrumentMetricHandler(s.registry.Registerer(), metricsHandler)
	}
	mux.Handle("/metrics", metricsHandler)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/", s.handleNotFound)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to bind port %d: %w", s.cfg.Port, err)
	}
	s.listener = listener

	s.httpServer = &http.Server{
		Handler:      mux,
		ReadTimeout:  s.cfg.ReadTimeoutDuration(),
		WriteTimeout: s.cfg.WriteTimeoutDuration(),
	}

	s.log.Info("starting exposition server", "addr", listener.Addr().String(), "instance", s.instanceID)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("exposition server error", "error", err)
		}
	}()

	s.running = true
	s.startTime = time.Now()
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error
	if s.httpServer != nil {
		if shutdownErr := s.httpServer.Shutdown(ctx); shutdownErr != nil {
			err = fmt.Errorf("HTTP shutdown: %w", shutdownErr)
		}
	}

	s.running = false
	s.log.Info("exposition server stopped")
	return err
}

// Addr returns the listen address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Port returns the actual bound port, or 0 before Start. With
// configured port 0 this is the port the kernel picked.
func (s *Server) Port() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return 0
	}
	tcpAddr, ok := s.listener.Addr().(*net.TCPAddr)
	if !ok {
		return 0
	}
	return tcpAddr.Port
}

// IsRunning returns whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Uptime returns the server uptime in seconds.
func (s *Server) Uptime() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return 0
	}
	return int(time.Since(s.startTime).Seconds())
}
