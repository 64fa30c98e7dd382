package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/cumulo-cloud/cumulo/internal/logger"
	"github.com/cumulo-cloud/cumulo/pkg/api/middleware"
	"github.com/cumulo-cloud/cumulo/pkg/drive"
)

// decodeJSONBody decodes a JSON request body into v. Returns false after
// writing a 400 if decoding fails.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		BadRequest(w, "Invalid request body")
		return false
	}
	return true
}

// currentUserID extracts the authenticated user ID from the request
// context. Returns false after writing a 401 if no claims are present.
func currentUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		Unauthorized(w, "Authentication required")
		return "", false
	}
	return claims.UserID, true
}

// writeDriveError maps storage engine errors onto problem responses.
// Expected outcomes keep their detail; anything else is reported as an
// internal failure and logged.
func writeDriveError(w http.ResponseWriter, err error) {
	var verr *drive.ValidationError
	var qerr *drive.QuotaExceededError

	switch {
	case errors.As(err, &verr):
		BadRequest(w, verr.Error())
	case errors.As(err, &qerr):
		InsufficientStorage(w, fmt.Sprintf(
			"upload of %d bytes would exceed quota (%d of %d bytes used)",
			qerr.Incoming, qerr.Used, qerr.Quota))
	case errors.Is(err, drive.ErrNotFound), errors.Is(err, drive.ErrUserNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, drive.ErrConflict):
		Conflict(w, err.Error())
	case errors.Is(err, drive.ErrInvalidCredentials):
		Unauthorized(w, "Invalid credentials")
	default:
		logger.Error("storage operation failed", "error", err)
		InternalServerError(w, "Storage operation failed")
	}
}
