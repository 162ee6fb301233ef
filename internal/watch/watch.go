// Package watch re-runs a handler when files under a set of directories
// change, grouping bursts of events into one call.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDelay is the quiet period that ends a burst of changes.
const DefaultDelay = 200 * time.Millisecond

// Handler is called with the sorted, de-duplicated paths that changed.
// A handler error is logged and watching continues.
type Handler func(ctx context.Context, paths []string) error

// Filter reports whether a change to path should trigger the handler.
type Filter func(path string) bool

// Watcher watches directory trees for changes.
type Watcher struct {
	fsw    *fsnotify.Watcher
	delay  time.Duration
	filter Filter
	logger *slog.Logger
	roots  []string
}

// New creates a watcher. A delay of zero means DefaultDelay; a nil logger
// discards diagnostics.
func New(delay time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Watcher{fsw: fsw, delay: delay, logger: logger}, nil
}

// SetFilter restricts which changes trigger the handler. Hidden entries
// below a watched root, such as the store's lock, temp and backup files,
// are always skipped.
func (w *Watcher) SetFilter(f Filter) {
	w.filter = f
}

// AddRecursive watches root and every directory below it. Directories
// created later are added as they appear.
func (w *Watcher) AddRecursive(root string) error {
	root = filepath.Clean(root)
	w.roots = append(w.roots, root)
	return w.addTree(root)
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.hidden(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run delivers debounced changes to h until ctx is done. It returns nil on
// cancellation and an error if the underlying watcher fails.
func (w *Watcher) Run(ctx context.Context, h Handler) error {
	pending := map[string]bool{}
	timer := time.NewTimer(w.delay)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && !w.hidden(ev.Name) {
					if err := w.addTree(ev.Name); err != nil {
						w.logger.Warn("watching new directory", "path", ev.Name, "err", err)
					}
				}
			}
			if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
				continue
			}
			if w.hidden(ev.Name) || (w.filter != nil && !w.filter(ev.Name)) {
				continue
			}
			w.logger.Debug("change", "path", ev.Name, "op", ev.Op.String())
			pending[ev.Name] = true
			timer.Reset(w.delay)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			w.logger.Warn("watcher error", "err", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			pending = map[string]bool{}
			if err := h(ctx, paths); err != nil {
				w.logger.Warn("change handler failed", "err", err)
			}
		}
	}
}

// hidden reports whether path has a dot-prefixed element below one of the
// watched roots.
func (w *Watcher) hidden(path string) bool {
	for _, root := range w.roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		for _, elem := range strings.Split(filepath.ToSlash(rel), "/") {
			if len(elem) > 1 && strings.HasPrefix(elem, ".") {
				return true
			}
		}
	}
	return false
}
