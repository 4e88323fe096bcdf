package filestore

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher signals when a watched file is written or replaced. It watches the
// parent directory because atomic rewrites replace the inode, which drops a
// watch placed on the file itself.
type Watcher struct {
	logger  *slog.Logger
	watcher *fsnotify.Watcher
	dir     string
	name    string
	notify  chan struct{}
}

func NewWatcher(logger *slog.Logger, path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	w := &Watcher{
		logger:  logger,
		watcher: fw,
		dir:     filepath.Dir(abs),
		name:    filepath.Base(abs),
		notify:  make(chan struct{}, 1),
	}
	if err := fw.Add(w.dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	return w, nil
}

// Changes delivers at most one pending signal; bursts of writes coalesce.
func (w *Watcher) Changes() <-chan struct{} { return w.notify }

// Run forwards matching events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	w.logger.Info("watching command file", "dir", w.dir, "file", w.name)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != w.name {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			select {
			case w.notify <- struct{}{}:
			default:
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("command file watcher error", "error", err)
		}
	}
}
