package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cumulo-cloud/cumulo/internal/bytesize"
)

// yamlSafePath converts a filesystem path to a YAML-safe representation.
// On Windows, backslashes in double-quoted YAML strings are interpreted
// as escape sequences, causing parse errors.
func yamlSafePath(p string) string {
	return filepath.ToSlash(p)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return configPath
}

func TestLoad_AppliesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeConfig(t, `
logging:
  level: "INFO"

storage:
  path: "`+yamlSafePath(tmpDir)+`/storage"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default output 'stdout', got %q", cfg.Logging.Output)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("Expected API port 8080, got %d", cfg.API.Port)
	}
	if cfg.Storage.ShareTTL != 24*time.Hour {
		t.Errorf("Expected default share TTL 24h, got %v", cfg.Storage.ShareTTL)
	}
	if cfg.Session.IdleThreshold != 30*time.Minute {
		t.Errorf("Expected default idle threshold 30m, got %v", cfg.Session.IdleThreshold)
	}
}

func TestLoad_DecodeHooks(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeConfig(t, `
storage:
  path: "`+yamlSafePath(tmpDir)+`/storage"
  default_quota: 10Gi
  share_ttl: 36h

api:
  max_upload_size: "500Mi"
  read_timeout: 45s

session:
  idle_threshold: 1h
  sweep_interval: 10m
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Storage.DefaultQuota != 10*bytesize.GiB {
		t.Errorf("Expected default quota 10Gi, got %d", cfg.Storage.DefaultQuota)
	}
	if cfg.Storage.ShareTTL != 36*time.Hour {
		t.Errorf("Expected share TTL 36h, got %v", cfg.Storage.ShareTTL)
	}
	if cfg.API.MaxUploadSize != 500*bytesize.MiB {
		t.Errorf("Expected max upload size 500Mi, got %d", cfg.API.MaxUploadSize)
	}
	if cfg.API.ReadTimeout != 45*time.Second {
		t.Errorf("Expected read timeout 45s, got %v", cfg.API.ReadTimeout)
	}
	if cfg.Session.IdleThreshold != time.Hour {
		t.Errorf("Expected idle threshold 1h, got %v", cfg.Session.IdleThreshold)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	// Loading a nonexistent explicit path falls back to defaults
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Expected defaults when config file is missing, got error: %v", err)
	}
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level INFO, got %q", cfg.Logging.Level)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "logging:\n  level: [unclosed")

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error for invalid YAML")
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	configPath := writeConfig(t, `
logging:
  level: "LOUD"
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected validation error for invalid log level")
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Storage.Path = "/srv/cumulo"
	cfg.Storage.DefaultQuota = 5 * bytesize.GiB
	cfg.Admin.Email = "root@example.com"

	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := SaveConfig(cfg, configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("Config file not written: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected mode 0600, got %v", info.Mode().Perm())
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}
	if loaded.Storage.Path != "/srv/cumulo" {
		t.Errorf("Expected storage path /srv/cumulo, got %q", loaded.Storage.Path)
	}
	if loaded.Storage.DefaultQuota != 5*bytesize.GiB {
		t.Errorf("Expected quota 5Gi, got %d", loaded.Storage.DefaultQuota)
	}
	if loaded.Admin.Email != "root@example.com" {
		t.Errorf("Expected admin email root@example.com, got %q", loaded.Admin.Email)
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("Expected config.yaml, got %q", path)
	}
}

func TestGetConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")

	dir := GetConfigDir()
	if dir != filepath.Join("/tmp/xdg-test", "cumulo") {
		t.Errorf("Expected XDG config dir, got %q", dir)
	}
}
