package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cumulo-cloud/cumulo/internal/bytesize"
)

// GetDefaultConfig returns a configuration populated entirely with defaults.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and
// environment variables to fill in any missing values. Zero values
// (0, "", false) are replaced with defaults; explicit values are
// preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}

	applyStorageDefaults(&cfg.Storage)
	cfg.API.ApplyDefaults()
	applyMetricsDefaults(&cfg.Metrics)
	applySessionDefaults(&cfg.Session)
	applyAdminDefaults(&cfg.Admin)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyStorageDefaults sets storage layout defaults.
func applyStorageDefaults(cfg *StorageConfig) {
	if cfg.Path == "" {
		cfg.Path = defaultStoragePath()
	}
	if cfg.DefaultQuota == 0 {
		cfg.DefaultQuota = 10 * bytesize.GiB
	}
	if cfg.ShareTTL == 0 {
		cfg.ShareTTL = 24 * time.Hour
	}
	if cfg.ShareSweepInterval == 0 {
		cfg.ShareSweepInterval = time.Hour
	}
}

// applyMetricsDefaults sets metrics defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	// Enabled defaults to false (opt-in for metrics)
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// applySessionDefaults sets session store defaults.
func applySessionDefaults(cfg *SessionConfig) {
	if cfg.IdleThreshold == 0 {
		cfg.IdleThreshold = 30 * time.Minute
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = 5 * time.Minute
	}
}

// applyAdminDefaults sets bootstrap admin defaults.
func applyAdminDefaults(cfg *AdminConfig) {
	if cfg.Email == "" {
		cfg.Email = "admin@localhost"
	}
	if cfg.DisplayName == "" {
		cfg.DisplayName = "Administrator"
	}
}

// defaultStoragePath returns the default storage base directory,
// following XDG_DATA_HOME when set.
func defaultStoragePath() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "cumulo", "storage")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "cumulo", "storage")
	}
	return filepath.Join(".", "cumulo-storage")
}
