package workers

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// CensorWatcher calls reload whenever the censored word file changes.
// The parent directory is watched so editors replacing the file are seen too.
type CensorWatcher struct {
	log    *slog.Logger
	path   string
	reload func() error
}

func NewCensorWatcher(log *slog.Logger, path string, reload func() error) *CensorWatcher {
	return &CensorWatcher{log: log, path: filepath.Clean(path), reload: reload}
}

func (w *CensorWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	w.log.Debug("Watching censored words", "path", w.path)

	for {
		select {
		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(evt.Name) != w.path || !evt.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if err := w.reload(); err != nil {
				w.log.Warn("Censored words not reloaded, keeping the previous list", "path", w.path, "error", err)
				continue
			}
			w.log.Info("Censored words reloaded", "path", w.path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("Censored words watcher error", "error", err)
		case <-ctx.Done():
			return nil
		}
	}
}
