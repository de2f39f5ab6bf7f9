package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	dserrors "github.com/radhakrish-venkat/desktop-search/internal/errors"
)

// DefaultDebounce is the quiet interval before a refresh triggers.
const DefaultDebounce = 2 * time.Second

// Watcher observes directory trees and invokes a refresh callback after
// changes settle. The callback receives the set of paths that changed;
// the refresh itself re-runs change detection, so a spurious event at
// worst costs one no-op pass.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce *Debouncer
	roots    []string
}

// New creates a watcher over roots. refresh runs on the watcher's
// goroutine after each settled burst.
func New(roots []string, debounce time.Duration, refresh func(paths []string)) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, dserrors.New(dserrors.ErrCodeInternal, "failed to create filesystem watcher", err)
	}

	w := &Watcher{
		fsw:      fsw,
		debounce: NewDebouncer(debounce, refresh),
		roots:    roots,
	}

	for _, root := range roots {
		if err := w.addRecursive(root); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Run processes events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.debounce.Stop()
	defer w.fsw.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("filesystem watcher error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return
	}

	// New directories must be watched before anything inside them
	// changes; fsnotify does not recurse on its own.
	if event.Op.Has(fsnotify.Create) {
		if err := w.addRecursive(event.Name); err == nil {
			slog.Debug("watching new directory", slog.String("path", event.Name))
		}
	}

	if event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write) ||
		event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
		w.debounce.Notify(event.Name)
	}
}

// addRecursive watches path and every non-hidden subdirectory. A path
// that is not a directory is ignored.
func (w *Watcher) addRecursive(path string) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != path && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			slog.Warn("failed to watch directory",
				slog.String("path", p),
				slog.String("error", err.Error()))
		}
		return nil
	})
}
