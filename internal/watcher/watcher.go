// Package watcher re-imports dataset files when they change in the import directories.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/hyperjump/revgeo/internal/importer"
)

// Dataset files are written in large chunks; wait for writes to settle before importing.
const defaultDebounce = 2 * time.Second

// Watcher watches dataset directories and calls onChange for settled files and onRemove for deleted ones.
type Watcher struct {
	roots      []string
	extensions []string
	recursive  bool
	onChange   func(path string)
	onRemove   func(path string)
	debounce   time.Duration
	logger     *zap.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	pending map[string]*time.Timer
	done    chan struct{}
	started bool
	stop    sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for watch events.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithDebounce sets how long a file must stay unchanged before onChange runs.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a watcher over roots. Only files matching extensions are reported (empty means all).
func NewWatcher(roots, extensions []string, recursive bool, onChange, onRemove func(path string), opts ...Option) *Watcher {
	w := &Watcher{
		roots:      append([]string(nil), roots...),
		extensions: extensions,
		recursive:  recursive,
		onChange:   onChange,
		onRemove:   onRemove,
		debounce:   defaultDebounce,
		logger:     zap.NewNop(),
		pending:    make(map[string]*time.Timer),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. Missing roots are created. It returns immediately; events are
// handled until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, root := range w.roots {
		if err := addTree(fsw, filepath.Clean(root), w.recursive, true); err != nil {
			_ = fsw.Close()
			return err
		}
	}
	w.fsw = fsw
	w.started = true
	w.logger.Info("watching dataset directories",
		zap.Strings("roots", w.roots),
		zap.Strings("extensions", w.extensions),
		zap.Bool("recursive", w.recursive))
	go w.run(ctx, fsw)
	return nil
}

// addTree watches dir, and its subdirectories when recursive.
func addTree(fsw *fsnotify.Watcher, dir string, recursive, create bool) error {
	if create {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if !recursive {
		return fsw.Add(dir)
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handle(fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(fsw *fsnotify.Watcher, ev fsnotify.Event) {
	path := ev.Name
	if !w.underRoot(path) {
		return
	}
	w.logger.Debug("watch event", zap.String("op", ev.Op.String()), zap.String("path", path))
	switch {
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if w.recursive || w.isRoot(filepath.Dir(path)) {
				w.newDirectory(fsw, path)
			}
			return
		}
		if importer.MatchExtension(path, w.extensions) {
			w.schedule(path)
		}
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		w.cancel(path)
		if importer.MatchExtension(path, w.extensions) && w.onRemove != nil {
			w.onRemove(path)
		}
	}
}

// newDirectory starts watching a directory that appeared under a root and reports the datasets already in it.
func (w *Watcher) newDirectory(fsw *fsnotify.Watcher, dir string) {
	if err := addTree(fsw, dir, w.recursive, false); err != nil {
		w.logger.Warn("failed to watch new directory", zap.String("path", dir), zap.Error(err))
	}
	w.sync(dir)
}

func (w *Watcher) isRoot(dir string) bool {
	dir = filepath.Clean(dir)
	for _, r := range w.roots {
		if filepath.Clean(r) == dir {
			return true
		}
	}
	return false
}

func (w *Watcher) underRoot(path string) bool {
	path = filepath.Clean(path)
	for _, r := range w.roots {
		rel, err := filepath.Rel(filepath.Clean(r), path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// schedule runs onChange for path once no event for it has arrived within the debounce window.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.logger.Debug("dataset settled", zap.String("path", path))
		if w.onChange != nil {
			w.onChange(path)
		}
	})
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) sync(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && !w.recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if importer.MatchExtension(path, w.extensions) {
			w.schedule(path)
		}
		return nil
	})
}

// Directories returns the watched roots.
func (w *Watcher) Directories() []string {
	return append([]string(nil), w.roots...)
}

// SyncExistingFiles schedules every dataset already present in the roots.
func (w *Watcher) SyncExistingFiles() {
	for _, root := range w.roots {
		w.sync(filepath.Clean(root))
	}
}

// Stop stops watching and drops pending imports.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	fsw := w.fsw
	w.started = false
	w.mu.Unlock()
	w.stop.Do(func() { close(w.done) })
	_ = fsw.Close()
}
