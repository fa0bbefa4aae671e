// Package watch reports when a dataset file has finished changing.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	apperr "github.com/KaramelBytes/schemalock-cli/internal/errors"
)

// DefaultSettleDelay is how long a file must stay unchanged before a change
// is reported.
const DefaultSettleDelay = 250 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	SettleDelay time.Duration
	Logger      *slog.Logger
}

// Watcher watches a single file. The parent directory is watched so that
// editors which replace the file via rename are still observed.
type Watcher struct {
	path    string
	opts    Options
	fs      *fsnotify.Watcher
	settled chan struct{}

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64 // bumped whenever a pending timer is superseded
	size    int64
	modTime time.Time
}

// New creates a watcher for path. The file must exist.
func New(path string, opts Options) (*Watcher, error) {
	path, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.NotFound("dataset not found: "+path, err)
		}
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}
	if info.IsDir() {
		return nil, apperr.InvalidValue("%s is a directory", path)
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to add watch: %w", err)
	}
	return &Watcher{
		path:    path,
		opts:    opts,
		fs:      fw,
		settled: make(chan struct{}, 1),
	}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Run processes filesystem events until ctx is cancelled and calls onChange
// once per settled modification. onChange runs on the calling goroutine, so
// changes arriving meanwhile are coalesced into one further call.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context)) error {
	defer w.close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.opts.Logger.Warn("watch error", "path", w.path, "error", err)
		case <-w.settled:
			onChange(ctx)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if filepath.Clean(ev.Name) != w.path {
		return
	}
	switch {
	case ev.Op&fsnotify.Remove != 0:
		w.cancelPending()
		w.opts.Logger.Warn("dataset removed; waiting for it to reappear", "path", w.path)
	case ev.Op&(fsnotify.Write|fsnotify.Create) != 0:
		w.startSettling()
	}
}

func (w *Watcher) startSettling() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.gen++
	info, err := os.Stat(w.path)
	if err != nil {
		w.timer = nil
		return
	}
	w.size, w.modTime = info.Size(), info.ModTime()
	w.arm(w.gen)
}

func (w *Watcher) arm(gen uint64) {
	w.timer = time.AfterFunc(w.opts.SettleDelay, func() { w.checkSettled(gen) })
}

// checkSettled re-arms the timer while size or mtime keep moving. Callbacks
// from a superseded generation are ignored.
func (w *Watcher) checkSettled(gen uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if gen != w.gen {
		return
	}
	info, err := os.Stat(w.path)
	if err != nil {
		w.timer = nil
		return
	}
	if info.Size() != w.size || !info.ModTime().Equal(w.modTime) {
		w.size, w.modTime = info.Size(), info.ModTime()
		w.arm(gen)
		return
	}
	w.timer = nil
	select {
	case w.settled <- struct{}{}:
	default:
	}
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.gen++
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func (w *Watcher) close() {
	w.cancelPending()
	_ = w.fs.Close()
}
