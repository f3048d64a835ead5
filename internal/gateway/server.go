package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/iot-ingress/internal/infrastructure/config"
	"github.com/nerrad567/iot-ingress/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the gateway server.
type Deps struct {
	Config    config.GatewayConfig
	Logger    *logging.Logger
	Directory Authorizer
	Relay     Forwarder
	Version   string
}

// Server is the HTTP ingress server.
//
// It manages the HTTP listener, routes, and middleware. The server is
// created with New() and started with Start(). A listener-level fatal
// error is delivered on Err(); per-request errors never reach it.
type Server struct {
	cfg       config.GatewayConfig
	logger    *logging.Logger
	directory Authorizer
	relay     Forwarder
	metrics   *metrics
	version   string
	server    *http.Server
	errCh     chan error
}

// New creates a new gateway server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, directory, relay)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Directory == nil {
		return nil, fmt.Errorf("directory client is required")
	}
	if deps.Relay == nil {
		return nil, fmt.Errorf("relay is required")
	}

	return &Server{
		cfg:       deps.Config,
		logger:    deps.Logger,
		directory: deps.Directory,
		relay:     deps.Relay,
		metrics:   newMetrics(),
		version:   deps.Version,
		errCh:     make(chan error, 1),
	}, nil
}

// Start begins listening for HTTP connections.
//
// It builds the router and launches the HTTP listener in a background
// goroutine. The server can be stopped with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server cannot be configured
func (s *Server) Start(ctx context.Context) error {
	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("gateway starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("gateway starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("gateway listener error", "error", err)
			s.errCh <- err
		}
	}()

	return nil
}

// Err returns a channel that delivers a listener-level fatal error.
// Per-request failures are answered in-band and never appear here.
func (s *Server) Err() <-chan error {
	return s.errCh
}

// Close gracefully shuts down the gateway server.
//
// It waits up to 10 seconds for in-flight requests to complete, then
// forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("gateway shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down gateway: %w", err)
	}
	return nil
}

// HealthCheck reports whether the listener has been started.
func (s *Server) HealthCheck() error {
	if s.server == nil {
		return ErrServerNotStarted
	}
	return nil
}

// Handler builds and returns the configured router. Exposed for tests.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.securityHeadersMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Liveness and metrics (no auth required)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.handler())

	// Ingress endpoints, basic auth when a username is configured
	r.Group(func(r chi.Router) {
		if s.cfg.Auth.Username != "" {
			r.Use(s.basicAuthMiddleware)
		}
		r.Post(s.cfg.DataPath, s.handleData)
		r.Post(s.cfg.MessagePath, s.handleMessage)
		r.Post(s.cfg.GroupMessagePath, s.handleGroupMessage)
	})

	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleNotFound)

	return r
}
