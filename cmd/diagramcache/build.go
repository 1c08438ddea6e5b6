package main

import (
	"context"

	diagramcache "github.com/alnah/go-diagramcache"
)

// runBuild renders every uncached diagram under the content directory.
// Diagram failures are reported but do not change the exit code.
func runBuild(ctx context.Context, args []string, env *Environment) error {
	f := &buildFlags{}
	rest, err := parseArgs(buildFlagSet(f), args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(&f.common, env)
	if err != nil {
		return err
	}
	if err := contentDirArg("build", rest, cfg); err != nil {
		return err
	}
	mergeContentFlags(&f.content, cfg)
	mergeCacheFlags(&f.cache, cfg)
	mergeRendererFlags(&f.renderer, cfg)
	if f.prune {
		cfg.Cache.Prune = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(env.Stderr, f.common.quiet, f.common.verbose)
	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}

	// A dry run never renders, so it works without mmdc or Chrome.
	var r diagramcache.Renderer = offlineRenderer{}
	if !f.dryRun {
		var closeRenderer func()
		r, closeRenderer, err = env.NewRenderer(cfg.Renderer)
		if err != nil {
			return err
		}
		defer closeRenderer()
	}

	b, err := newBuilder(cfg, store, r, logger)
	if err != nil {
		return err
	}

	sum, err := b.Build(ctx, diagramcache.BuildOptions{Prune: cfg.Cache.Prune, DryRun: f.dryRun})
	if sum != nil {
		out := outputOptions{quiet: f.common.quiet, json: f.json, dryRun: f.dryRun}
		if werr := printSummary(env, sum, out); werr != nil && err == nil {
			err = werr
		}
	}
	return err
}
