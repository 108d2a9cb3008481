package document

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// ErrWatcherClosed is returned by Wait after Close.
var ErrWatcherClosed = errors.New("watcher closed")

// settle is how long Wait keeps absorbing events after the first one, since
// editors often write a file in several steps.
const settle = 100 * time.Millisecond

// Watcher reports changes to a single file. The parent directory is watched
// so that editors replacing the file are noticed too.
type Watcher struct {
	watcher *fsnotify.Watcher
	path    string
	dir     string
}

// NewWatcher starts watching path.
func NewWatcher(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("unable to get absolute path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("error creating fsnotify watcher: %w", err)
	}

	dir := filepath.Dir(abs)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("error adding dir to fsnotify watcher: %w", err)
	}
	log.Info("fsnotify watching dir", "dir", dir)

	return &Watcher{watcher: fw, path: abs, dir: dir}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Wait blocks until the file is written or created.
func (w *Watcher) Wait(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return ErrWatcherClosed
			}
			if !w.relevant(event) {
				continue
			}
			log.Debug("fsnotify event", "file", event.Name, "event", event.Op)
			return w.settle(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return ErrWatcherClosed
			}
			log.Debug("fsnotify error", "dir", w.dir, "error", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Name != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

// settle drains events until the file has been quiet for a moment.
func (w *Watcher) settle(ctx context.Context) error {
	timer := time.NewTimer(settle)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.relevant(event) {
				timer.Reset(settle)
			}
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	if err := w.watcher.Remove(w.dir); err != nil {
		log.Debug("fsnotify fail to unwatch dir", "dir", w.dir, "error", err)
	}
	return w.watcher.Close()
}
