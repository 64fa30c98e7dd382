package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cumulo-cloud/cumulo/internal/logger"
	"github.com/cumulo-cloud/cumulo/internal/ratelimit"
	"github.com/cumulo-cloud/cumulo/pkg/api/auth"
	"github.com/cumulo-cloud/cumulo/pkg/drive"
	"github.com/cumulo-cloud/cumulo/pkg/metrics"
	"github.com/cumulo-cloud/cumulo/pkg/session"
)

// loginLimiterTTL is how long an idle client keeps its rate limit
// bucket before the periodic sweep drops it.
const loginLimiterTTL = 10 * time.Minute

// Server provides the HTTP API for the drive service.
//
// The server supports graceful shutdown with configurable timeout.
type Server struct {
	server       *http.Server
	jwtService   *auth.JWTService
	loginLimiter *ratelimit.Limiter
	config       Config
	shutdownOnce sync.Once
}

// NewServer creates a new API HTTP server.
//
// The server is created in a stopped state. Call Start() to begin
// serving requests.
//
// The JWT service is created internally from the config. The signing
// secret must be set via config.JWT.Secret or the CUMULO_API_SECRET
// environment variable and be at least 32 characters.
func NewServer(cfg Config, driveService *drive.Service, sessions *session.Store, version string) (*Server, error) {
	cfg.ApplyDefaults()

	jwtService, err := auth.NewJWTService(cfg.jwtServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	var loginLimiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		loginLimiter = ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst, loginLimiterTTL)
	}

	router := NewRouter(cfg, RouterDeps{
		Drive:        driveService,
		Sessions:     sessions,
		JWTService:   jwtService,
		LoginLimiter: loginLimiter,
		DriveMetrics: metrics.NewDriveMetrics(),
		HTTPMetrics:  metrics.NewHTTPMetrics(),
		Version:      version,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &Server{
		server:       server,
		jwtService:   jwtService,
		loginLimiter: loginLimiter,
		config:       cfg,
	}, nil
}

// Start starts the API HTTP server and blocks until the context is
// cancelled or an error occurs. Cancellation triggers graceful
// shutdown.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("API server listening", "port", s.config.Port)

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
				// Context was cancelled, error is not needed
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("API server shutdown signal received")
		// Don't use the cancelled ctx as it would abort the shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("API server failed: %w", err)
	}
}

// Stop initiates graceful shutdown of the API server.
//
// Stop is safe to call multiple times and safe to call concurrently
// with Start().
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Debug("API server shutdown initiated")

		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("API server shutdown error: %w", err)
			logger.Error("API server shutdown error", "error", err)
		} else {
			logger.Info("API server stopped gracefully")
		}
	})
	return shutdownErr
}

// SweepLoginLimiter evicts idle rate limit buckets. Intended to be
// called periodically by the orchestrator.
func (s *Server) SweepLoginLimiter() int {
	if s.loginLimiter == nil {
		return 0
	}
	return s.loginLimiter.Sweep()
}

// Port returns the TCP port the server is configured to listen on.
func (s *Server) Port() int {
	return s.config.Port
}
