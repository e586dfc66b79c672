package feed

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period after the last file event before a
// reload is triggered.
const DefaultDebounce = 250 * time.Millisecond

// Watcher triggers a callback when the feed file changes on disk.
//
// The parent directory is watched instead of the file itself so that
// editors and deploy tools that replace the file by rename are observed.
// Bursts of events are collapsed into a single callback after Debounce.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(ctx context.Context) error
	lg       *zap.Logger
}

// NewWatcher creates a Watcher for path. A non-positive debounce selects
// DefaultDebounce.
func NewWatcher(path string, debounce time.Duration, onChange func(ctx context.Context) error, lg *zap.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		onChange: onChange,
		lg:       lg,
	}
}

// Run watches until ctx is done. Callback errors are logged and do not stop
// the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	defer func() { _ = fw.Close() }()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return errors.Wrapf(err, "watch %s", dir)
	}
	w.lg.Info("Watching catalog feed", zap.String("path", w.path))

	var (
		timer   *time.Timer
		trigger <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.lg.Debug("Feed file event", zap.Stringer("op", ev.Op))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			trigger = timer.C
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.lg.Warn("Watcher error", zap.Error(err))
		case <-trigger:
			trigger = nil
			if err := w.onChange(ctx); err != nil {
				w.lg.Error("Reload after feed change failed", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}
