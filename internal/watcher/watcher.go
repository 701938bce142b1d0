// Package watcher notifies the dashboard and board views when the deck
// changes underneath them. Local decks are watched through fsnotify; remote
// decks have no files to watch and are polled instead.
package watcher

import (
	"context"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/cyberdeck-app/cyberdeck/internal/logging"
)

// DefaultDebounce coalesces the burst of events one atomic save produces
// (temp file create, write, rename) into a single notification.
const DefaultDebounce = 100 * time.Millisecond

// Watcher invokes a callback, debounced, whenever one of the watched files
// changes or the poll interval elapses.
type Watcher struct {
	fsw      *fsnotify.Watcher
	names    []string
	debounce time.Duration
	poll     time.Duration
	logger   *log.Logger

	mu       sync.Mutex
	timer    *time.Timer
	callback func()
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithPollInterval fires the callback every d in addition to file events.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) { w.poll = d }
}

// WithLogger sets the logger used for watch errors.
func WithLogger(l *log.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// New watches the given files. Saves replace files by rename, so the parent
// directories are watched and events are filtered by base name.
func New(files []string, callback func(), opts ...Option) (*Watcher, error) {
	w := newWatcher(callback, opts)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, f := range files {
		w.names = append(w.names, filepath.Base(f))
		if dir := filepath.Dir(f); !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	for _, d := range dirs {
		if err := fsw.Add(d); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	w.fsw = fsw
	return w, nil
}

// NewPoller returns a Watcher that only fires every interval.
func NewPoller(interval time.Duration, callback func(), opts ...Option) *Watcher {
	w := newWatcher(callback, opts)
	w.poll = interval
	return w
}

func newWatcher(callback func(), opts []Option) *Watcher {
	w := &Watcher{callback: callback, debounce: DefaultDebounce, logger: logging.Discard()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run blocks until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) {
	var events chan fsnotify.Event
	var errs chan error
	if w.fsw != nil {
		events, errs = w.fsw.Events, w.fsw.Errors
	}
	var tick <-chan time.Time
	if w.poll > 0 {
		t := time.NewTicker(w.poll)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return
		case <-tick:
			w.callback()
		case event, ok := <-events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !slices.Contains(w.names, filepath.Base(event.Name)) {
				continue
			}
			w.schedule()
		case err, ok := <-errs:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "err", err)
		}
	}
}

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() error {
	if w.fsw == nil {
		return nil
	}
	return w.fsw.Close()
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.callback)
}
