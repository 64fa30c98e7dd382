// Package server wires the drive service, session store, HTTP API and
// background maintenance loops into a single runnable unit.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cumulo-cloud/cumulo/internal/logger"
	"github.com/cumulo-cloud/cumulo/pkg/api"
	"github.com/cumulo-cloud/cumulo/pkg/config"
	"github.com/cumulo-cloud/cumulo/pkg/drive"
	"github.com/cumulo-cloud/cumulo/pkg/metrics"
	"github.com/cumulo-cloud/cumulo/pkg/session"
)

// Server owns the full service lifecycle: the drive engine, the session
// store, the API server, the optional metrics server, and the periodic
// sweeps for expired shares, idle sessions and stale rate limit buckets.
type Server struct {
	cfg       *config.Config
	drive     *drive.Service
	sessions  *session.Store
	apiServer *api.Server
	metricsS  *http.Server
	driveM    *metrics.DriveMetrics
	version   string
}

// New builds a Server from configuration. The storage tree is created
// if missing, the share index is rebuilt from user metadata, and an
// admin account is bootstrapped when none exists.
//
// If a new admin had to be created without a configured password hash,
// the generated password is logged once at startup.
func New(cfg *config.Config, version string) (*Server, error) {
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	driveService, err := drive.New(drive.Config{
		BasePath:     cfg.Storage.Path,
		DefaultQuota: int64(cfg.Storage.DefaultQuota),
		ShareTTL:     cfg.Storage.ShareTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	generated, err := driveService.EnsureAdminUser(
		cfg.Admin.Email, cfg.Admin.DisplayName, cfg.Admin.PasswordHash, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure admin user: %w", err)
	}
	if generated != "" {
		logger.Warn("admin user created with a generated password; it will not be shown again",
			"email", cfg.Admin.Email, "password", generated)
	}

	sessions := session.NewStore()

	apiServer, err := api.NewServer(cfg.API, driveService, sessions, version)
	if err != nil {
		return nil, fmt.Errorf("failed to create API server: %w", err)
	}

	s := &Server{
		cfg:       cfg,
		drive:     driveService,
		sessions:  sessions,
		apiServer: apiServer,
		driveM:    metrics.NewDriveMetrics(),
		version:   version,
	}

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		s.metricsS = &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
	}

	return s, nil
}

// Drive returns the underlying drive service.
func (s *Server) Drive() *drive.Service {
	return s.drive
}

// Serve runs the API server, the metrics server and the maintenance
// loops until the context is cancelled, then shuts everything down
// gracefully within the configured shutdown timeout.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errChan := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.apiServer.Start(ctx); err != nil {
			errChan <- err
			cancel()
		}
	}()

	if s.metricsS != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("metrics server listening", "port", s.cfg.Metrics.Port)
			if err := s.metricsS.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errChan <- fmt.Errorf("metrics server failed: %w", err)
				cancel()
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.runMaintenance(ctx)
	}()

	<-ctx.Done()

	if s.metricsS != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		if err := s.metricsS.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
		shutdownCancel()
	}

	wg.Wait()

	select {
	case err := <-errChan:
		return err
	default:
		return nil
	}
}

// runMaintenance drives the periodic sweeps. Each sweep runs on its own
// ticker so their cadences stay independent.
func (s *Server) runMaintenance(ctx context.Context) {
	shareTicker := time.NewTicker(s.cfg.Storage.ShareSweepInterval)
	defer shareTicker.Stop()
	sessionTicker := time.NewTicker(s.cfg.Session.SweepInterval)
	defer sessionTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-shareTicker.C:
			removed, err := s.drive.CleanupExpiredShares()
			if err != nil {
				logger.Warn("share sweep failed", "error", err)
				continue
			}
			s.driveM.RecordSweep("shares", removed)
			if removed > 0 {
				logger.Info("expired shares removed", "count", removed)
			}

		case <-sessionTicker.C:
			evicted := s.sessions.SweepIdle(s.cfg.Session.IdleThreshold)
			s.driveM.RecordSweep("sessions", evicted)
			s.driveM.SetActiveSessions(s.sessions.Len())
			if evicted > 0 {
				logger.Info("idle sessions evicted", "count", evicted)
			}

			if dropped := s.apiServer.SweepLoginLimiter(); dropped > 0 {
				logger.Debug("stale rate limit buckets dropped", "count", dropped)
			}
		}
	}
}
