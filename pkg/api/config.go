package api

import (
	"os"
	"time"

	"github.com/cumulo-cloud/cumulo/internal/bytesize"
	"github.com/cumulo-cloud/cumulo/internal/logger"
	"github.com/cumulo-cloud/cumulo/pkg/api/auth"
)

// EnvAPISecret is the environment variable holding the JWT signing secret.
const EnvAPISecret = "CUMULO_API_SECRET"

// Config configures the control API HTTP server.
type Config struct {
	// Port is the HTTP port for the API endpoints.
	// Default: 8080
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. Default: 30s (uploads stream through this).
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response
	// writes. Default: 30s
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout. Default: 60s
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`

	// RequestTimeout bounds handler execution. Default: 60s
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`

	// MaxUploadSize caps a single upload body. Default: 1Gi
	MaxUploadSize bytesize.Size `mapstructure:"max_upload_size" yaml:"max_upload_size,omitempty"`

	// PublicURL is the externally visible base URL used when building
	// share links, e.g. "https://drive.example.com". Optional; when
	// empty, share responses carry only the share id.
	PublicURL string `mapstructure:"public_url" validate:"omitempty,url" yaml:"public_url,omitempty"`

	// JWT configures token generation and validation.
	JWT JWTConfig `mapstructure:"jwt" yaml:"jwt"`

	// RateLimit throttles authentication attempts per client IP.
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// JWTConfig configures JWT token generation.
type JWTConfig struct {
	// Secret is the HMAC signing key for JWT tokens. Must be at least 32
	// characters. The CUMULO_API_SECRET environment variable takes
	// precedence over this value.
	Secret string `mapstructure:"secret" yaml:"secret,omitempty"`

	// AccessTokenDuration is the lifetime of access tokens.
	// Default: 15m
	AccessTokenDuration time.Duration `mapstructure:"access_token_duration" yaml:"access_token_duration"`

	// RefreshTokenDuration is the lifetime of refresh tokens.
	// Default: 168h (7 days)
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration" yaml:"refresh_token_duration"`
}

// RateLimitConfig throttles login and refresh attempts per client IP.
type RateLimitConfig struct {
	// Enabled turns rate limiting on. Default: true
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// RPS is the sustained allowance in requests per second.
	// Default: 1
	RPS float64 `mapstructure:"rps" validate:"omitempty,gt=0" yaml:"rps"`

	// Burst is the bucket capacity. Default: 5
	Burst int `mapstructure:"burst" validate:"omitempty,gt=0" yaml:"burst"`
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 60 * time.Second
	}
	if c.MaxUploadSize == 0 {
		c.MaxUploadSize = bytesize.GiB
	}
	if c.JWT.AccessTokenDuration == 0 {
		c.JWT.AccessTokenDuration = 15 * time.Minute
	}
	if c.JWT.RefreshTokenDuration == 0 {
		c.JWT.RefreshTokenDuration = 7 * 24 * time.Hour
	}
	if c.RateLimit.RPS == 0 {
		c.RateLimit.RPS = 1
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 5
	}
}

// GetJWTSecret returns the JWT secret, preferring the environment variable.
func (c *Config) GetJWTSecret() string {
	envSecret := os.Getenv(EnvAPISecret)
	if envSecret != "" {
		if c.JWT.Secret != "" && c.JWT.Secret != envSecret {
			logger.Warn("JWT secret from environment variable overrides config file value",
				"env_var", EnvAPISecret)
		}
		return envSecret
	}
	return c.JWT.Secret
}

// jwtServiceConfig builds the auth layer configuration from this config.
func (c *Config) jwtServiceConfig() auth.JWTConfig {
	return auth.JWTConfig{
		Secret:               c.GetJWTSecret(),
		AccessTokenDuration:  c.JWT.AccessTokenDuration,
		RefreshTokenDuration: c.JWT.RefreshTokenDuration,
	}
}
