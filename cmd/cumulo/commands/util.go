package commands

import (
	"fmt"

	"github.com/cumulo-cloud/cumulo/internal/logger"
	"github.com/cumulo-cloud/cumulo/pkg/config"
	"github.com/cumulo-cloud/cumulo/pkg/drive"
)

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *config.Config) error {
	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// openDrive loads the configuration and opens the drive service for
// offline management commands that work directly on the storage tree.
func openDrive() (*drive.Service, *config.Config, error) {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return nil, nil, err
	}

	svc, err := drive.New(drive.Config{
		BasePath:     cfg.Storage.Path,
		DefaultQuota: int64(cfg.Storage.DefaultQuota),
		ShareTTL:     cfg.Storage.ShareTTL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open storage at %s: %w", cfg.Storage.Path, err)
	}
	return svc, cfg, nil
}

// getConfigSource returns a description of where the config was loaded from.
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}
