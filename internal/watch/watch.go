// Package watch delivers debounced per-file change notifications for a
// directory tree.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
	"golang.org/x/time/rate"

	"github.com/alnah/go-diagramcache/internal/metrics"
)

// DefaultDebounce absorbs editor auto-save bursts.
const DefaultDebounce = 500 * time.Millisecond

// ErrNoCallback is returned by New when onChange is nil.
var ErrNoCallback = errors.New("watch: nil change callback")

// Options configures a Watcher.
type Options struct {
	Debounce    time.Duration // per-file quiet period; DefaultDebounce when zero
	Extensions  []string      // file extensions to report, e.g. ".md"; empty reports all
	ExcludeDirs []string      // glob patterns matched against directory base names
	RateLimit   float64       // max callbacks per second across all files; 0 disables
	Burst       int           // limiter burst; defaults to 1
	Logger      *slog.Logger
}

// Func handles one settled file. changed is false when the file's bytes
// match those of the previous callback for the path. It is never called
// concurrently for the same path.
type Func func(ctx context.Context, path string, changed bool)

// Watcher watches directory trees recursively and calls a Func once per file
// after its debounce window elapses. New saves reset the window. Removed and
// renamed-away files are dropped. Every settled save is reported, including
// saves that left the content unchanged.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	exts     map[string]bool
	excludes []glob.Glob
	limiter  *rate.Limiter
	logger   *slog.Logger
	onChange Func

	mu      sync.Mutex
	files   map[string]*fileState
	closed  bool
	ctx     context.Context
	running sync.WaitGroup
}

// fileState tracks one path. run serialises callbacks; the other fields are
// guarded by Watcher.mu.
type fileState struct {
	run   sync.Mutex
	timer *time.Timer
	sum   uint64
	seen  bool
}

// New creates a Watcher. Call Add for each root, then Run.
func New(opts Options, onChange Func) (*Watcher, error) {
	if onChange == nil {
		return nil, ErrNoCallback
	}

	excludes := make([]glob.Glob, 0, len(opts.ExcludeDirs))
	for _, pattern := range opts.ExcludeDirs {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		excludes = append(excludes, g)
	}

	exts := make(map[string]bool, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" {
			exts[ext] = true
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fs:       fsw,
		debounce: opts.Debounce,
		exts:     exts,
		excludes: excludes,
		logger:   opts.Logger,
		onChange: onChange,
		files:    make(map[string]*fileState),
		ctx:      context.Background(),
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		w.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return w, nil
}

// Add watches root and every non-excluded directory below it.
func (w *Watcher) Add(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.excludedDir(path) {
			return filepath.SkipDir
		}
		return w.fs.Add(path)
	})
}

// Run processes events until ctx is canceled, then closes the watch handle
// and waits for in-flight callbacks. Callbacks receive ctx.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	w.ctx = ctx
	w.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return w.Close()

		case event, ok := <-w.fs.Events:
			if !ok {
				return w.Close()
			}
			metrics.WatcherEventsTotal.Inc()
			w.handle(event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return w.Close()
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// Close stops pending timers, closes the watch handle and waits for running
// callbacks. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for _, st := range w.files {
		if st.timer != nil {
			st.timer.Stop()
		}
	}
	w.mu.Unlock()

	err := w.fs.Close()
	w.running.Wait()
	return err
}

func (w *Watcher) handle(event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if w.excludedDir(path) {
				return
			}
			if err := w.Add(path); err != nil {
				w.logger.Warn("failed to watch new directory", "path", path, "error", err)
				return
			}
			w.enqueueExisting(path)
			return
		}
	}

	if !w.wanted(path) {
		return
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.forget(path)
	case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
		w.schedule(path)
	}
}

// schedule (re)starts path's debounce timer.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	st, ok := w.files[path]
	if !ok {
		st = &fileState{}
		w.files[path] = st
	}
	if st.timer != nil {
		st.timer.Stop()
	}
	st.timer = time.AfterFunc(w.debounce, func() { w.fire(path, st) })
}

// forget cancels a pending callback for a removed file.
func (w *Watcher) forget(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if st, ok := w.files[path]; ok {
		if st.timer != nil {
			st.timer.Stop()
			st.timer = nil
		}
		st.seen = false
	}
}

func (w *Watcher) fire(path string, st *fileState) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	ctx := w.ctx
	w.running.Add(1)
	w.mu.Unlock()
	defer w.running.Done()

	st.run.Lock()
	defer st.run.Unlock()

	if ctx.Err() != nil {
		return
	}

	content, err := os.ReadFile(path) // #nosec G304 -- path reported by fsnotify under a watched root
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			w.logger.Warn("failed to read changed file", "path", path, "error", err)
		}
		return
	}

	sum := xxhash.Sum64(content)
	w.mu.Lock()
	changed := !st.seen || st.sum != sum
	st.sum, st.seen = sum, true
	w.mu.Unlock()

	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			return
		}
	}

	w.onChange(ctx, path, changed)
}

// enqueueExisting schedules files already present in a newly created directory.
func (w *Watcher) enqueueExisting(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && w.excludedDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if w.wanted(path) {
			w.schedule(path)
		}
		return nil
	})
}

func (w *Watcher) wanted(path string) bool {
	if len(w.exts) == 0 {
		return true
	}
	return w.exts[strings.ToLower(filepath.Ext(path))]
}

func (w *Watcher) excludedDir(path string) bool {
	base := filepath.Base(path)
	for _, g := range w.excludes {
		if g.Match(base) {
			return true
		}
	}
	return false
}
