// Package watch reruns a callback when trace or index files change.
//
// The parent directory of each file is watched rather than the file itself,
// so tracers that rewrite a file by rename are still seen. Bursts of events
// are debounced into a single reload.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a reload fires.
const DefaultDebounce = 500 * time.Millisecond

// ReloadFunc is called with the files that changed since the last reload.
type ReloadFunc func(ctx context.Context, changed []string) error

// Watcher watches a set of files.
type Watcher struct {
	files     map[string]struct{}
	fsWatcher *fsnotify.Watcher
	reload    ReloadFunc

	debounceDelay time.Duration
	pending       map[string]struct{}
	pendingMu     sync.Mutex
	debounceTimer *time.Timer

	// reloadMu serializes reloads. Changes seen while a reload runs are
	// picked up by the next one.
	reloadMu sync.Mutex

	onReload func(changed []string, took time.Duration)
	onError  func(error)
}

// Option configures the watcher.
type Option func(*Watcher)

// WithDebounce sets the debounce delay.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounceDelay = d
		}
	}
}

// OnReload is called after every successful reload.
func OnReload(fn func(changed []string, took time.Duration)) Option {
	return func(w *Watcher) { w.onReload = fn }
}

// OnError is called for watcher and reload errors. Errors never stop the
// watcher.
func OnError(fn func(error)) Option {
	return func(w *Watcher) { w.onError = fn }
}

// New creates a watcher over paths. Files need not exist yet, but their
// directories must.
func New(paths []string, reload ReloadFunc, opts ...Option) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("watch: no paths")
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		files:         make(map[string]struct{}),
		fsWatcher:     fsWatcher,
		reload:        reload,
		debounceDelay: DefaultDebounce,
		pending:       make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsWatcher.Close()
			return nil, err
		}
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fsWatcher.Add(dir); err != nil {
			fsWatcher.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return w, nil
}

// Run handles events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsWatcher.Close()
	defer w.stopTimer()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.report(err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	name, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}
	if _, ok := w.files[name]; !ok {
		return
	}

	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[name] = struct{}{}
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, func() { w.fire(ctx) })
}

func (w *Watcher) fire(ctx context.Context) {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()

	w.pendingMu.Lock()
	changed := make([]string, 0, len(w.pending))
	for f := range w.pending {
		changed = append(changed, f)
	}
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	if len(changed) == 0 || ctx.Err() != nil {
		return
	}

	start := time.Now()
	if err := w.reload(ctx, changed); err != nil {
		w.report(fmt.Errorf("reload: %w", err))
		return
	}
	if w.onReload != nil {
		w.onReload(changed, time.Since(start))
	}
}

func (w *Watcher) stopTimer() {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
}

func (w *Watcher) report(err error) {
	if w.onError != nil {
		w.onError(err)
	}
}
