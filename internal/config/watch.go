package config

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors the config file at path and invokes onChange with each
// successfully reloaded Config. A reload that fails validation leaves the
// running analysis parameters untouched. Watch blocks until ctx is
// cancelled or the watcher shuts down.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(path); err != nil {
		return err
	}
	slog.Info("watching config", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			// Atomic saves replace the file, which arrives as Create
			// rather than Write.
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if cfg := reload(path); cfg != nil {
				onChange(cfg)
			}
			// The old inode may be gone after an atomic save.
			_ = w.Add(path)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Error("config watcher error", "err", err)
		}
	}
}

// reload parses the config at path, returning nil if it cannot be used.
func reload(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		slog.Error("config reload rejected, keeping current parameters",
			"path", path, "err", err)
		return nil
	}
	slog.Info("config reloaded",
		"primary", cfg.Primary.Channel,
		"min_significance", cfg.Analysis.MinSignificance,
		"max_rounds", cfg.Analysis.MaxRounds,
		"workers", cfg.Analysis.Workers)
	return cfg
}
