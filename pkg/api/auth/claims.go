package auth

import "github.com/golang-jwt/jwt/v5"

// TokenType distinguishes access tokens from refresh tokens.
type TokenType string

const (
	// TokenTypeAccess marks short-lived tokens used to authorize requests.
	TokenTypeAccess TokenType = "access"

	// TokenTypeRefresh marks long-lived tokens exchanged for new pairs.
	TokenTypeRefresh TokenType = "refresh"
)

// Claims is the JWT payload carried by both token types.
type Claims struct {
	jwt.RegisteredClaims

	UserID             string    `json:"uid"`
	Email              string    `json:"email,omitempty"`
	Admin              bool      `json:"admin,omitempty"`
	MustChangePassword bool      `json:"must_change_pwd,omitempty"`
	TokenType          TokenType `json:"token_type"`
}

// IsAccessToken reports whether the claims belong to an access token.
func (c *Claims) IsAccessToken() bool {
	return c.TokenType == TokenTypeAccess
}

// IsRefreshToken reports whether the claims belong to a refresh token.
func (c *Claims) IsRefreshToken() bool {
	return c.TokenType == TokenTypeRefresh
}

// IsAdmin reports whether the token grants administrative access.
func (c *Claims) IsAdmin() bool {
	return c.Admin
}
