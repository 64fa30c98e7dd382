package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/cumulo-cloud/cumulo/internal/logger"
	"github.com/cumulo-cloud/cumulo/pkg/api/auth"
	"github.com/cumulo-cloud/cumulo/pkg/drive"
	"github.com/cumulo-cloud/cumulo/pkg/session"
)

// AuthHandler handles authentication endpoints. Refresh tokens are
// registered in the session store so they can be revoked on logout and
// evicted when idle; access tokens stay stateless.
type AuthHandler struct {
	drive      *drive.Service
	jwtService *auth.JWTService
	sessions   *session.Store
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(driveService *drive.Service, jwtService *auth.JWTService, sessions *session.Store) *AuthHandler {
	return &AuthHandler{
		drive:      driveService,
		jwtService: jwtService,
		sessions:   sessions,
	}
}

// LoginRequest is the request body for POST /api/v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the response body for login and refresh.
type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	ExpiresAt    time.Time    `json:"expires_at"`
	User         UserResponse `json:"user"`
}

// UserResponse is a sanitized user representation for API responses.
type UserResponse struct {
	ID                 string    `json:"id"`
	Email              string    `json:"email,omitempty"`
	DisplayName        string    `json:"display_name,omitempty"`
	Admin              bool      `json:"admin"`
	MustChangePassword bool      `json:"must_change_password,omitempty"`
	QuotaBytes         int64     `json:"quota_bytes"`
	CreatedAt          time.Time `json:"created_at"`
}

// RefreshRequest is the request body for POST /api/v1/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ChangePasswordRequest is the request body for POST /api/v1/auth/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		BadRequest(w, "Email and password are required")
		return
	}

	user, err := h.drive.Authenticate(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, drive.ErrInvalidCredentials) {
			Unauthorized(w, "Invalid email or password")
			return
		}
		InternalServerError(w, "Authentication failed")
		return
	}

	h.issueTokens(w, user)
}

// Refresh handles POST /api/v1/auth/refresh. The refresh token must be
// valid, still registered (not logged out or idle-evicted), and is
// replaced by the new pair's token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		BadRequest(w, "Refresh token is required")
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			Unauthorized(w, "Refresh token has expired")
			return
		}
		Unauthorized(w, "Invalid refresh token")
		return
	}

	if _, ok := h.sessions.Validate(req.RefreshToken); !ok {
		Unauthorized(w, "Session has been revoked")
		return
	}

	user, err := h.drive.GetUser(claims.UserID)
	if err != nil {
		Unauthorized(w, "User no longer exists")
		return
	}

	h.sessions.Remove(req.RefreshToken)
	h.issueTokens(w, user)
}

// Logout handles POST /api/v1/auth/logout. Revokes the refresh token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.RefreshToken != "" {
		h.sessions.Remove(req.RefreshToken)
	}
	WriteNoContent(w)
}

// Me handles GET /api/v1/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	user, err := h.drive.GetUser(userID)
	if err != nil {
		writeDriveError(w, err)
		return
	}
	WriteJSONOK(w, userToResponse(user))
}

// ChangePassword handles POST /api/v1/auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.NewPassword == "" {
		BadRequest(w, "New password is required")
		return
	}

	if err := h.drive.UpdatePassword(userID, req.CurrentPassword, req.NewPassword); err != nil {
		writeDriveError(w, err)
		return
	}
	WriteNoContent(w)
}

func (h *AuthHandler) issueTokens(w http.ResponseWriter, user *drive.User) {
	pair, err := h.jwtService.GenerateTokenPair(user)
	if err != nil {
		logger.Error("token generation failed", "user_id", user.ID, "error", err)
		InternalServerError(w, "Failed to generate token")
		return
	}

	h.sessions.Register(pair.RefreshToken, user.ID)

	WriteJSONOK(w, LoginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    pair.ExpiresIn,
		ExpiresAt:    pair.ExpiresAt,
		User:         userToResponse(user),
	})
}

// userToResponse converts a User to its sanitized API representation.
func userToResponse(user *drive.User) UserResponse {
	return UserResponse{
		ID:                 user.ID,
		Email:              user.Email,
		DisplayName:        user.DisplayName,
		Admin:              user.Admin,
		MustChangePassword: user.MustChangePassword,
		QuotaBytes:         user.QuotaBytes,
		CreatedAt:          user.CreatedAt,
	}
}
