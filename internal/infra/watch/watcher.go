// Package watch nudges the refresh loop when a local pricing file changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"instancecat/internal/infra/telemetry"
)

const defaultDebounce = 500 * time.Millisecond

// FileWatcher calls Notify once per burst of writes to Path.
type FileWatcher struct {
	path     string
	debounce time.Duration
	notify   func()
	logger   *zap.Logger
}

// Options configures a FileWatcher.
type Options struct {
	Path     string
	Debounce time.Duration
	Notify   func()
	Logger   *zap.Logger
}

func NewFileWatcher(opts Options) *FileWatcher {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	notify := opts.Notify
	if notify == nil {
		notify = func() {}
	}
	return &FileWatcher{
		path:     filepath.Clean(opts.Path),
		debounce: debounce,
		notify:   notify,
		logger:   logger.Named("watch"),
	}
}

// Run watches the parent directory so editors that replace the file by
// rename are still seen. It returns when ctx is done.
func (w *FileWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.logger.Info("watching pricing file", zap.String("path", w.path))

	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				w.logger.Warn("pricing file watcher error", zap.Error(err))
			}
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
		case <-timerChan(timer):
			timer = nil
			w.logger.Info("pricing file changed", telemetry.EventField(telemetry.EventSourceChanged), zap.String("path", w.path))
			w.notify()
		}
	}
}

func (w *FileWatcher) relevant(event fsnotify.Event) bool {
	if event.Name == "" || filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

func timerChan(timer *time.Timer) <-chan time.Time {
	if timer == nil {
		return nil
	}
	return timer.C
}
