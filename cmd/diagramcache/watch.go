package main

import (
	"context"
	"fmt"
	"time"

	diagramcache "github.com/alnah/go-diagramcache"
	"github.com/alnah/go-diagramcache/internal/metrics"
)

// metricsShutdownTimeout bounds the graceful stop of the metrics server.
const metricsShutdownTimeout = 5 * time.Second

// runWatch re-renders diagrams as content files are saved until interrupted.
func runWatch(ctx context.Context, args []string, env *Environment) error {
	f := &watchFlags{}
	rest, err := parseArgs(watchFlagSet(f), args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(&f.common, env)
	if err != nil {
		return err
	}
	if err := contentDirArg("watch", rest, cfg); err != nil {
		return err
	}
	mergeContentFlags(&f.content, cfg)
	mergeCacheFlags(&f.cache, cfg)
	mergeRendererFlags(&f.renderer, cfg)
	if f.debounce > 0 {
		cfg.Watch.Debounce = f.debounce
	}
	if f.rateLimit > 0 {
		cfg.Watch.RateLimit = f.rateLimit
	}
	if f.metricsAddr != "" {
		cfg.Watch.MetricsAddr = f.metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(env.Stderr, f.common.quiet, f.common.verbose)
	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	r, closeRenderer, err := env.NewRenderer(cfg.Renderer)
	if err != nil {
		return err
	}
	defer closeRenderer()

	b, err := newBuilder(cfg, store, r, logger)
	if err != nil {
		return err
	}

	stdout := &syncWriter{w: env.Stdout}
	stderr := &syncWriter{w: env.Stderr}

	if cfg.Watch.MetricsAddr != "" {
		srv := metrics.NewServer(cfg.Watch.MetricsAddr, logger)
		if err := srv.Start(); err != nil {
			return fmt.Errorf("starting metrics server: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
			defer cancel()
			_ = srv.Stop(stopCtx)
		}()
		if !f.common.quiet {
			fmt.Fprintf(stdout, "Metrics on http://%s/metrics\n", srv.Addr())
		}
	}

	if !f.common.quiet {
		fmt.Fprintf(stdout, "Watching %s (cache %s), press Ctrl+C to stop\n", cfg.Content.Dir, cfg.Cache.Dir)
	}

	return diagramcache.Watch(ctx, b, diagramcache.WatchOptions{
		Debounce:  cfg.Watch.Debounce,
		RateLimit: cfg.Watch.RateLimit,
		Burst:     cfg.Watch.Burst,
		OnSummary: func(path string, s *diagramcache.Summary) {
			printFailures(stderr, s.Failures)
			if f.common.quiet || (s.Rendered == 0 && !f.common.verbose) {
				return
			}
			fmt.Fprintf(stdout, "[%s] %s: rendered %d, cached %d, failed %d\n",
				env.Now().Format(time.TimeOnly), path, s.Rendered, s.Cached, s.Failed)
		},
	})
}
