package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cumulo-cloud/cumulo/internal/logger"
)

// watchDebounce coalesces bursts of filesystem events. Editors often
// write config files with several events in quick succession.
const watchDebounce = 250 * time.Millisecond

// Watch monitors the configuration file for changes and invokes
// onChange with the freshly loaded configuration after each change.
//
// The parent directory is watched rather than the file itself, since
// many editors replace files via rename which would drop a direct
// watch. Reload failures are logged and skipped; the previous
// configuration stays in effect.
//
// Watch blocks until the context is cancelled.
func Watch(ctx context.Context, configPath string, onChange func(*Config)) error {
	if configPath == "" {
		configPath = GetDefaultConfigPath()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(configPath)); err != nil {
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	logger.Debug("watching configuration file", "path", configPath)

	var debounce *time.Timer
	debounceCh := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(configPath) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(watchDebounce, func() {
				select {
				case debounceCh <- struct{}{}:
				default:
				}
			})

		case <-debounceCh:
			cfg, err := Load(configPath)
			if err != nil {
				logger.Warn("config reload failed, keeping previous configuration",
					"path", configPath, "error", err)
				continue
			}
			logger.Info("configuration reloaded", "path", configPath)
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher error", "error", err)
		}
	}
}
