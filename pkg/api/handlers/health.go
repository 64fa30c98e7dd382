package handlers

import (
	"net/http"
	"time"
)

// HealthHandler reports service liveness and readiness.
type HealthHandler struct {
	startTime time.Time
	version   string
	ready     func() error
}

// NewHealthHandler creates a new HealthHandler. The ready probe may be
// nil, in which case readiness always succeeds.
func NewHealthHandler(version string, ready func() error) *HealthHandler {
	return &HealthHandler{startTime: time.Now(), version: version, ready: ready}
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Uptime  string `json:"uptime"`
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSONOK(w, HealthResponse{
		Status:  "ok",
		Version: h.version,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Ready handles GET /health/ready. It fails when the storage backend is
// not reachable.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(); err != nil {
			WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
			return
		}
	}
	WriteJSONOK(w, HealthResponse{Status: "ok"})
}
