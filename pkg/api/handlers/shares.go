package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cumulo-cloud/cumulo/pkg/drive"
	"github.com/cumulo-cloud/cumulo/pkg/metrics"
)

// SharesHandler handles share link endpoints. Creation and revocation
// require authentication; downloads by share id are public.
type SharesHandler struct {
	drive     *drive.Service
	metrics   *metrics.DriveMetrics
	publicURL string
}

// NewSharesHandler creates a new SharesHandler. publicURL is the
// externally visible base URL used to build share links; it may be
// empty, in which case only the share id is returned.
func NewSharesHandler(driveService *drive.Service, driveMetrics *metrics.DriveMetrics, publicURL string) *SharesHandler {
	return &SharesHandler{
		drive:     driveService,
		metrics:   driveMetrics,
		publicURL: publicURL,
	}
}

// CreateShareRequest is the request body for POST /api/v1/shares.
type CreateShareRequest struct {
	FileID string `json:"file_id"`
}

// ShareResponse is the response body for share creation.
type ShareResponse struct {
	ID        string    `json:"id"`
	FileID    string    `json:"file_id"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Create handles POST /api/v1/shares. Creating a share for an already
// shared file returns the existing link.
func (h *SharesHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req CreateShareRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.FileID == "" {
		BadRequest(w, "File id is required")
		return
	}

	share, err := h.drive.CreateShare(userID, req.FileID)
	h.metrics.RecordOperation("share", err)
	if err != nil {
		writeDriveError(w, err)
		return
	}

	WriteJSONCreated(w, h.shareToResponse(share))
}

// Delete handles DELETE /api/v1/shares?file_id=<fileID>.
func (h *SharesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	fileID := r.URL.Query().Get("file_id")
	if fileID == "" {
		BadRequest(w, "Query parameter 'file_id' is required")
		return
	}

	err := h.drive.DeleteShare(userID, fileID)
	h.metrics.RecordOperation("unshare", err)
	if err != nil {
		writeDriveError(w, err)
		return
	}
	WriteNoContent(w)
}

// Download handles GET /share/{shareID}. Unauthenticated: the share id
// is the only credential, and expired or revoked links 404.
func (h *SharesHandler) Download(w http.ResponseWriter, r *http.Request) {
	shareID := chi.URLParam(r, "shareID")
	if shareID == "" {
		NotFound(w, "Share not found")
		return
	}

	rc, entry, err := h.drive.OpenShared(shareID)
	h.metrics.RecordShareResolve(err == nil)
	if err != nil {
		// Never distinguish unknown, expired, and revoked links.
		NotFound(w, "Share not found")
		return
	}
	defer rc.Close()

	serveFile(w, rc, entry)
}

func (h *SharesHandler) shareToResponse(share *drive.Share) ShareResponse {
	resp := ShareResponse{
		ID:        share.ID,
		FileID:    share.FileID,
		CreatedAt: share.CreatedAt,
		ExpiresAt: share.ExpiresAt,
	}
	if h.publicURL != "" {
		resp.URL = fmt.Sprintf("%s/share/%s", h.publicURL, share.ID)
	}
	return resp
}
