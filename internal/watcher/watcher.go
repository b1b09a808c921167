// Package watcher reports files that appear in a directory once writes to
// them have settled.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/clipforge/clipforge-agent/internal/logging"
)

const DefaultQuietPeriod = 2 * time.Second

type Watcher interface {
	Watch(ctx context.Context, path string) error
	OnChange(callback func(path string, event EventType))
}

type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
)

func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventModify:
		return "modify"
	case EventDelete:
		return "delete"
	}
	return "unknown"
}

// FSWatcher debounces fsnotify events per file. A file is reported once no
// write has touched it for the quiet period, so recordings still being
// written are not picked up half-finished.
type FSWatcher struct {
	logger *slog.Logger
	quiet  time.Duration

	mu       sync.Mutex
	callback func(path string, event EventType)
	pending  map[string]*pendingFile
}

type pendingFile struct {
	timer   *time.Timer
	created bool
}

func New(logger *slog.Logger, quiet time.Duration) *FSWatcher {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	if logger != nil {
		logger = logging.WithComponent(logger, "watcher")
	}
	return &FSWatcher{
		logger:  logger,
		quiet:   quiet,
		pending: make(map[string]*pendingFile),
	}
}

func (w *FSWatcher) OnChange(callback func(path string, event EventType)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callback = callback
}

// Watch blocks until ctx is done or the underlying watcher fails. The
// directory is created if it does not exist.
func (w *FSWatcher) Watch(ctx context.Context, path string) error {
	dir, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("invalid watch path: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure watch dir: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()
	defer w.stopPending()

	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", logging.SanitizePath(dir), err)
	}
	if w.logger != nil {
		w.logger.Info("watching directory", "path", logging.SanitizePath(dir), "quiet_period", w.quiet.String())
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-fw.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			if w.logger != nil {
				w.logger.Warn("watch error", "error", err)
			}
		case evt, ok := <-fw.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			w.handle(evt)
		}
	}
}

func (w *FSWatcher) handle(evt fsnotify.Event) {
	switch {
	case evt.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.cancel(evt.Name)
		w.emit(evt.Name, EventDelete)
	case evt.Op&fsnotify.Create != 0:
		if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
			return
		}
		w.touch(evt.Name, true)
	case evt.Op&fsnotify.Write != 0:
		w.touch(evt.Name, false)
	}
}

// touch restarts the quiet timer for path.
func (w *FSWatcher) touch(path string, created bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p, ok := w.pending[path]; ok {
		p.created = p.created || created
		p.timer.Reset(w.quiet)
		return
	}
	p := &pendingFile{created: created}
	p.timer = time.AfterFunc(w.quiet, func() { w.settle(path) })
	w.pending[path] = p
}

func (w *FSWatcher) settle(path string) {
	w.mu.Lock()
	p, ok := w.pending[path]
	delete(w.pending, path)
	w.mu.Unlock()
	if !ok {
		return
	}

	event := EventModify
	if p.created {
		event = EventCreate
	}
	w.emit(path, event)
}

func (w *FSWatcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if p, ok := w.pending[path]; ok {
		p.timer.Stop()
		delete(w.pending, path)
	}
}

func (w *FSWatcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, path)
	}
}

func (w *FSWatcher) emit(path string, event EventType) {
	w.mu.Lock()
	cb := w.callback
	w.mu.Unlock()

	if w.logger != nil {
		w.logger.Debug("file settled", "path", logging.SanitizePath(path), "event", event.String())
	}
	if cb != nil {
		cb(path, event)
	}
}
