// Package watch reports the changes of the SVG files of a directory,
// batched until the directory is quiet.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/benoitkugler/svgviewbox/svgscan"
	"github.com/fsnotify/fsnotify"
)

// Watcher monitors the immediate entries of a directory.
type Watcher struct {
	dir      string
	debounce time.Duration
	onChange func(files []string)
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	mu      sync.Mutex
	ignored map[string]bool // absolute paths
	pending map[string]struct{}
	timer   *time.Timer

	flushMu sync.Mutex // serializes onChange
}

// New starts watching `dir`. `onChange` is called with the sorted list of the
// changed SVG files, once no other change happened during `debounce`.
// A nil logger is replaced by slog.Default().
func New(dir string, debounce time.Duration, logger *slog.Logger, onChange func(files []string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, &svgscan.DirectoryAccessError{Dir: dir, Err: err}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		onChange: onChange,
		watcher:  fsw,
		logger:   logger,
		ignored:  make(map[string]bool),
		pending:  make(map[string]struct{}),
	}, nil
}

// Ignore excludes `paths` from the reported changes.
func (w *Watcher) Ignore(paths ...string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			w.ignored[abs] = true
		}
	}
}

func (w *Watcher) isIgnored(file string) bool {
	abs, err := filepath.Abs(file)
	if err != nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ignored[abs]
}

// Run processes the events until `ctx` is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !svgscan.IsSVG(e.Name) || w.isIgnored(e.Name) {
				continue
			}
			w.logger.Debug("watch: event", "op", e.Op.String(), "file", e.Name)
			if e.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.add(e.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				w.logger.Error("watch: watcher error", "dir", w.dir, "error", err)
			}
		}
	}
}

func (w *Watcher) add(file string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[file] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.flushMu.Lock()
	defer w.flushMu.Unlock()

	w.mu.Lock()
	files := make([]string, 0, len(w.pending))
	for f := range w.pending {
		files = append(files, f)
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	if len(files) == 0 || w.onChange == nil {
		return
	}
	sort.Strings(files)
	w.onChange(files)
}

// Close stops the watcher. Pending changes are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()
	return w.watcher.Close()
}
