package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/budgetndiostory/bns-api/config"
	httpx "github.com/budgetndiostory/bns-api/internal/http"
	"github.com/budgetndiostory/bns-api/internal/service"
	"golang.org/x/time/rate"
)

// HTTPServerConfig contains the dependencies of the HTTP server.
type HTTPServerConfig struct {
	HTTP   config.HTTPConfig
	Auth   *service.AuthService
	DB     httpx.Pinger
	Logger *slog.Logger
}

// HTTPServer is the configured server plus the resources it owns.
type HTTPServer struct {
	Server  *http.Server
	limiter *httpx.RateLimiter
	timeout time.Duration
	logger  *slog.Logger
}

// NewHTTPServer builds the router and server without starting it.
func NewHTTPServer(cfg HTTPServerConfig) *HTTPServer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	limiter := httpx.NewRateLimiter(httpx.RateLimiterConfig{
		Rate:              rate.Limit(cfg.HTTP.AuthRateLimit),
		Burst:             cfg.HTTP.AuthRateBurst,
		TrustProxyHeaders: cfg.HTTP.TrustProxyHeaders,
		Logger:            logger,
	})

	services := httpx.RouterServices{
		DB:          cfg.DB,
		RateLimiter: limiter,
		HTTP:        cfg.HTTP,
		Logger:      logger,
	}
	// A nil *AuthService must stay a nil interface so the router skips auth routes.
	if cfg.Auth != nil {
		services.Auth = cfg.Auth
		services.Admin = cfg.Auth
	}

	addr := cfg.HTTP.Addr
	if addr == "" {
		addr = ":8080"
	}

	return &HTTPServer{
		Server: &http.Server{
			Addr:              addr,
			Handler:           buildHTTPHandler(logger, services),
			ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		limiter: limiter,
		timeout: cfg.HTTP.ShutdownTimeout,
		logger:  logger,
	}
}

// Order: Recover -> Logging -> Router.
func buildHTTPHandler(logger *slog.Logger, services httpx.RouterServices) http.Handler {
	h := httpx.NewRouter(services)
	h = httpx.Logging(logger)(h)
	h = httpx.Recover(logger)(h)
	return h
}

// ListenAndServe serves until Shutdown is called. A closed server is not an error.
func (s *HTTPServer) ListenAndServe() error {
	s.logger.Info("starting HTTP server", "addr", s.Server.Addr)
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests within the configured timeout and stops the rate limiter.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	defer s.limiter.Stop()

	timeout := s.timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.logger.InfoContext(ctx, "shutting down HTTP server")
	if err := s.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "HTTP server stopped")
	return nil
}
