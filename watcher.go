package diagramcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alnah/go-diagramcache/internal/watch"
)

// WatchOptions configures Watch.
type WatchOptions struct {
	// Debounce is the quiet period after the last save of a file before it is
	// processed. Zero uses 500ms.
	Debounce time.Duration
	// RateLimit caps file passes per second across the tree. Zero disables.
	RateLimit float64
	Burst     int
	// OnSummary, when set, receives the summary of every file pass that
	// found diagrams, except re-saves of unchanged content that were
	// already fully cached.
	OnSummary func(path string, s *Summary)
}

// Watch loads the manifest, then re-renders the diagrams of each content file
// as it is saved until ctx is canceled. Every save re-checks each diagram
// against the store, so re-saving a file retries earlier failures and
// restores deleted artifacts. Render failures are logged and never stop the
// loop. Returns nil on cancellation.
func Watch(ctx context.Context, b *Builder, opts WatchOptions) error {
	if err := b.store.Load(); err != nil {
		return err
	}

	var (
		mu    sync.Mutex
		total Summary
	)

	onChange := func(ctx context.Context, path string, changed bool) {
		sum, err := b.BuildFile(ctx, path)
		if err != nil {
			if ctx.Err() == nil {
				b.logger.Error("file pass failed", "path", path, "error", err)
			}
			return
		}
		if sum.Diagrams == 0 {
			return
		}
		if !changed && sum.Rendered == 0 && sum.Failed == 0 {
			b.logger.Debug("content unchanged and cached", "path", path)
			return
		}
		mu.Lock()
		total.add(sum)
		mu.Unlock()
		b.logger.Info("file processed", "path", path,
			"rendered", sum.Rendered, "cached", sum.Cached, "failed", sum.Failed)
		if opts.OnSummary != nil {
			opts.OnSummary(path, sum)
		}
	}

	w, err := watch.New(watch.Options{
		Debounce:    opts.Debounce,
		Extensions:  b.Extensions(),
		ExcludeDirs: b.ExcludeDirs(),
		RateLimit:   opts.RateLimit,
		Burst:       opts.Burst,
		Logger:      b.logger,
	}, onChange)
	if err != nil {
		return err
	}
	if err := w.Add(b.ContentDir()); err != nil {
		_ = w.Close()
		return fmt.Errorf("%w: %v", ErrContentDir, err)
	}

	b.logger.Info("watching content", "dir", b.ContentDir(), "cache", b.store.Dir())
	err = w.Run(ctx)

	mu.Lock()
	b.logger.Info("watch stopped",
		"rendered", total.Rendered, "cached", total.Cached, "failed", total.Failed)
	mu.Unlock()
	return err
}
