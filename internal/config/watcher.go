package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/jonesrussell/spotgrid/internal/classifier"
	"github.com/jonesrussell/spotgrid/internal/logger"
)

// Watcher reloads classification settings when the config file changes
// on disk. A reload that fails validation is rejected and the engine
// keeps the previous settings version.
type Watcher struct {
	path    string
	onApply func(classifier.Settings) error
	logger  logger.Logger
	watcher *fsnotify.Watcher
}

// NewWatcher creates a config watcher. onApply receives the new
// classification settings after a successful load.
func NewWatcher(path string, onApply func(classifier.Settings) error, log logger.Logger) (*Watcher, error) {
	if log == nil {
		log = logger.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	// Watch the directory: editors replace files, which drops the
	// watch on the file itself.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch config directory: %w", err)
	}

	return &Watcher{
		path:    path,
		onApply: onApply,
		logger:  log,
		watcher: fw,
	}, nil
}

// Run blocks until ctx is cancelled, applying config reloads as the
// file changes.
func (w *Watcher) Run(ctx context.Context) {
	defer func() {
		_ = w.watcher.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", logger.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Error("config reload rejected",
			logger.String("path", w.path),
			logger.Error(err))
		return
	}
	if err := w.onApply(cfg.Classification); err != nil {
		w.logger.Error("config reload not applied", logger.Error(err))
		return
	}
	w.logger.Info("classification settings reloaded",
		logger.String("version", cfg.Classification.Version),
		logger.String("profile", cfg.Classification.Profile))
}
