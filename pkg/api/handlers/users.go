package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cumulo-cloud/cumulo/internal/logger"
	"github.com/cumulo-cloud/cumulo/pkg/drive"
)

// UsersHandler handles admin user management endpoints.
type UsersHandler struct {
	drive *drive.Service
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(driveService *drive.Service) *UsersHandler {
	return &UsersHandler{drive: driveService}
}

// CreateUserRequest is the request body for POST /api/v1/users.
type CreateUserRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
	QuotaBytes  int64  `json:"quota_bytes"`
	Admin       bool   `json:"admin"`
}

// UpdateQuotaRequest is the request body for PUT /api/v1/users/{userID}/quota.
type UpdateQuotaRequest struct {
	QuotaBytes int64 `json:"quota_bytes"`
}

// ResetPasswordRequest is the request body for PUT /api/v1/users/{userID}/password.
type ResetPasswordRequest struct {
	Password string `json:"password"`
}

// UserListResponse is the response body for GET /api/v1/users.
type UserListResponse struct {
	Users []UserResponse `json:"users"`
}

// Create handles POST /api/v1/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		BadRequest(w, "Email and password are required")
		return
	}

	user, err := h.drive.CreateUser(req.Email, req.DisplayName, req.Password, req.QuotaBytes, req.Admin)
	if err != nil {
		writeDriveError(w, err)
		return
	}

	logger.Info("user created", "user_id", user.ID, "email", user.Email, "admin", user.Admin)
	WriteJSONCreated(w, userToResponse(user))
}

// List handles GET /api/v1/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.drive.ListUsers()
	if err != nil {
		writeDriveError(w, err)
		return
	}

	resp := UserListResponse{Users: make([]UserResponse, 0, len(users))}
	for _, user := range users {
		resp.Users = append(resp.Users, userToResponse(user))
	}
	WriteJSONOK(w, resp)
}

// Get handles GET /api/v1/users/{userID}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	user, err := h.drive.GetUser(userID)
	if err != nil {
		writeDriveError(w, err)
		return
	}
	WriteJSONOK(w, userToResponse(user))
}

// Usage handles GET /api/v1/users/{userID}/usage.
func (h *UsersHandler) Usage(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	usage, err := h.drive.GetUsage(userID)
	if err != nil {
		writeDriveError(w, err)
		return
	}
	WriteJSONOK(w, usage)
}

// UpdateQuota handles PUT /api/v1/users/{userID}/quota.
func (h *UsersHandler) UpdateQuota(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req UpdateQuotaRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if err := h.drive.UpdateQuota(userID, req.QuotaBytes); err != nil {
		writeDriveError(w, err)
		return
	}

	logger.Info("quota updated", "user_id", userID, "quota_bytes", req.QuotaBytes)
	WriteNoContent(w)
}

// ResetPassword handles PUT /api/v1/users/{userID}/password.
func (h *UsersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req ResetPasswordRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Password == "" {
		BadRequest(w, "Password is required")
		return
	}

	if err := h.drive.ResetPassword(userID, req.Password); err != nil {
		writeDriveError(w, err)
		return
	}

	logger.Info("password reset", "user_id", userID)
	WriteNoContent(w)
}

// Delete handles DELETE /api/v1/users/{userID}. Removes the user's
// metadata, files, trash, and shares.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	if err := h.drive.DeleteUser(userID); err != nil {
		writeDriveError(w, err)
		return
	}

	logger.Info("user deleted", "user_id", userID)
	WriteNoContent(w)
}
