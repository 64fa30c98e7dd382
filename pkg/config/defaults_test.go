package config

import (
	"testing"
	"time"

	"github.com/cumulo-cloud/cumulo/internal/bytesize"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected level INFO, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected format text, got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected output stdout, got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_NormalizesLogLevel(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "debug"}}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected normalized level DEBUG, got %q", cfg.Logging.Level)
	}
}

func TestApplyDefaults_Storage(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Storage.Path == "" {
		t.Error("Expected a default storage path")
	}
	if cfg.Storage.DefaultQuota != 10*bytesize.GiB {
		t.Errorf("Expected default quota 10Gi, got %d", cfg.Storage.DefaultQuota)
	}
	if cfg.Storage.ShareTTL != 24*time.Hour {
		t.Errorf("Expected share TTL 24h, got %v", cfg.Storage.ShareTTL)
	}
	if cfg.Storage.ShareSweepInterval != time.Hour {
		t.Errorf("Expected share sweep interval 1h, got %v", cfg.Storage.ShareSweepInterval)
	}
}

func TestApplyDefaults_MetricsPortOnlyWhenEnabled(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Metrics.Port != 0 {
		t.Errorf("Expected no metrics port when disabled, got %d", cfg.Metrics.Port)
	}

	cfg = &Config{Metrics: MetricsConfig{Enabled: true}}
	ApplyDefaults(cfg)
	if cfg.Metrics.Port != 9090 {
		t.Errorf("Expected metrics port 9090, got %d", cfg.Metrics.Port)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging:         LoggingConfig{Level: "ERROR", Format: "json", Output: "stderr"},
		ShutdownTimeout: 5 * time.Second,
		Storage: StorageConfig{
			Path:         "/data/cumulo",
			DefaultQuota: bytesize.GiB,
			ShareTTL:     time.Hour,
		},
		Session: SessionConfig{IdleThreshold: time.Hour, SweepInterval: time.Minute},
	}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Expected level ERROR preserved, got %q", cfg.Logging.Level)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("Expected shutdown timeout 5s preserved, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Storage.Path != "/data/cumulo" {
		t.Errorf("Expected storage path preserved, got %q", cfg.Storage.Path)
	}
	if cfg.Storage.DefaultQuota != bytesize.GiB {
		t.Errorf("Expected quota preserved, got %d", cfg.Storage.DefaultQuota)
	}
	if cfg.Session.IdleThreshold != time.Hour {
		t.Errorf("Expected idle threshold preserved, got %v", cfg.Session.IdleThreshold)
	}
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected default config to validate, got: %v", err)
	}
}

func TestValidate_SessionThresholds(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Session.IdleThreshold = time.Minute
	cfg.Session.SweepInterval = time.Hour

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error when idle threshold is shorter than sweep interval")
	}
}

func TestValidate_MetricsPortConflict(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = cfg.API.Port

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for conflicting ports")
	}
}
