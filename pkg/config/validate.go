package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validate checks the configuration against the struct-level validate
// tags and a few cross-field rules the tags cannot express.
func Validate(cfg *Config) error {
	validate := validator.New()

	if err := validate.Struct(cfg); err != nil {
		return err
	}

	if cfg.Session.IdleThreshold < cfg.Session.SweepInterval {
		return fmt.Errorf("session idle_threshold (%s) must not be shorter than sweep_interval (%s)",
			cfg.Session.IdleThreshold, cfg.Session.SweepInterval)
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Port == cfg.API.Port {
		return fmt.Errorf("metrics port %d conflicts with API port", cfg.Metrics.Port)
	}

	return nil
}
