package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cumulo-cloud/cumulo/internal/logger"
	"github.com/cumulo-cloud/cumulo/internal/ratelimit"
	"github.com/cumulo-cloud/cumulo/pkg/api/auth"
	"github.com/cumulo-cloud/cumulo/pkg/api/handlers"
	apiMiddleware "github.com/cumulo-cloud/cumulo/pkg/api/middleware"
	"github.com/cumulo-cloud/cumulo/pkg/drive"
	"github.com/cumulo-cloud/cumulo/pkg/metrics"
	"github.com/cumulo-cloud/cumulo/pkg/session"
)

// RouterDeps collects the dependencies the router wires into handlers.
type RouterDeps struct {
	Drive        *drive.Service
	Sessions     *session.Store
	JWTService   *auth.JWTService
	LoginLimiter *ratelimit.Limiter
	DriveMetrics *metrics.DriveMetrics
	HTTPMetrics  *metrics.HTTPMetrics
	Version      string
}

// NewRouter creates and configures the chi router with all middleware
// and routes.
//
// Routes:
//   - GET  /health                       - Liveness probe
//   - GET  /health/ready                 - Readiness probe (storage check)
//   - GET  /share/{shareID}              - Public share download
//   - POST /api/v1/auth/login            - User authentication (rate limited)
//   - POST /api/v1/auth/refresh          - Token refresh (rate limited)
//   - POST /api/v1/auth/logout           - Refresh token revocation
//   - GET  /api/v1/auth/me               - Current user info
//   - POST /api/v1/auth/password         - Change own password
//   - /api/v1/files/*                    - File management
//   - /api/v1/trash/*                    - Trash management
//   - /api/v1/shares/*                   - Share management
//   - /api/v1/users/*                    - User administration (admin only)
func NewRouter(cfg Config, deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	if deps.HTTPMetrics != nil {
		r.Use(httpMetrics(deps.HTTPMetrics))
	}

	healthHandler := handlers.NewHealthHandler(deps.Version, deps.Drive.Ping)
	authHandler := handlers.NewAuthHandler(deps.Drive, deps.JWTService, deps.Sessions)
	filesHandler := handlers.NewFilesHandler(deps.Drive, deps.DriveMetrics, int64(cfg.MaxUploadSize))
	trashHandler := handlers.NewTrashHandler(deps.Drive, deps.DriveMetrics)
	sharesHandler := handlers.NewSharesHandler(deps.Drive, deps.DriveMetrics, cfg.PublicURL)
	usersHandler := handlers.NewUsersHandler(deps.Drive)

	r.Get("/health", healthHandler.Health)
	r.Get("/health/ready", healthHandler.Ready)

	// Public share downloads - the share id is the only credential
	r.Get("/share/{shareID}", sharesHandler.Download)

	r.Route("/api/v1", func(r chi.Router) {
		// Auth routes
		r.Route("/auth", func(r chi.Router) {
			// Credential-bearing endpoints are rate limited per client IP
			r.Group(func(r chi.Router) {
				if deps.LoginLimiter != nil {
					r.Use(apiMiddleware.RateLimit(deps.LoginLimiter))
				}
				r.Post("/login", authHandler.Login)
				r.Post("/refresh", authHandler.Refresh)
			})

			r.Post("/logout", authHandler.Logout)

			r.Group(func(r chi.Router) {
				r.Use(apiMiddleware.JWTAuth(deps.JWTService))
				r.Get("/me", authHandler.Me)
				r.Post("/password", authHandler.ChangePassword)
			})
		})

		// Protected routes - require a valid access token
		r.Group(func(r chi.Router) {
			r.Use(apiMiddleware.JWTAuth(deps.JWTService))

			r.Route("/files", func(r chi.Router) {
				r.Get("/", filesHandler.List)
				r.Post("/", filesHandler.Upload)
				r.Delete("/", filesHandler.Delete)
				r.Get("/download", filesHandler.Download)
				r.Post("/folder", filesHandler.CreateFolder)
				r.Get("/folders", filesHandler.ListFolders)
				r.Post("/move", filesHandler.Move)
				r.Post("/rename", filesHandler.Rename)
				r.Post("/rename-folder", filesHandler.RenameFolder)
				r.Get("/usage", filesHandler.Usage)
			})

			r.Route("/trash", func(r chi.Router) {
				r.Get("/", trashHandler.List)
				r.Delete("/", trashHandler.Clear)
				r.Get("/folders", trashHandler.Folders)
				r.Post("/restore", trashHandler.Restore)
				r.Delete("/item", trashHandler.DeleteItem)
			})

			r.Route("/shares", func(r chi.Router) {
				r.Post("/", sharesHandler.Create)
				r.Delete("/", sharesHandler.Delete)
			})

			// User administration (admin only)
			r.Route("/users", func(r chi.Router) {
				r.Use(apiMiddleware.RequireAdmin())

				r.Post("/", usersHandler.Create)
				r.Get("/", usersHandler.List)
				r.Get("/{userID}", usersHandler.Get)
				r.Delete("/{userID}", usersHandler.Delete)
				r.Get("/{userID}/usage", usersHandler.Usage)
				r.Put("/{userID}/quota", usersHandler.UpdateQuota)
				r.Put("/{userID}/password", usersHandler.ResetPassword)
			})
		})
	})

	return r
}

// requestLogger logs requests using the internal logger. Health probes
// are logged at DEBUG to keep the logs quiet under liveness polling.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logArgs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
		}

		if strings.HasPrefix(r.URL.Path, "/health") {
			logger.Debug("API request completed", logArgs...)
		} else {
			logger.Info("API request completed", logArgs...)
		}
	})
}

// httpMetrics records request counts and latencies labelled by the chi
// route pattern rather than the raw path, keeping cardinality bounded.
func httpMetrics(m *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			m.RecordRequest(r.Method, route, ww.Status(), start)
		})
	}
}
