package main

import (
	"context"
)

// runPrune drops manifest entries and artifacts no longer referenced by the
// content tree. Nothing is rendered, so no renderer is needed.
func runPrune(ctx context.Context, args []string, env *Environment) error {
	f := &pruneFlags{}
	rest, err := parseArgs(pruneFlagSet(f), args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(&f.common, env)
	if err != nil {
		return err
	}
	if err := contentDirArg("prune", rest, cfg); err != nil {
		return err
	}
	mergeContentFlags(&f.content, cfg)
	mergeCacheFlags(&f.cache, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(env.Stderr, f.common.quiet, f.common.verbose)
	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	b, err := newBuilder(cfg, store, offlineRenderer{}, logger)
	if err != nil {
		return err
	}

	sum, err := b.Prune(ctx, f.dryRun)
	if err != nil {
		return err
	}
	return printSummary(env, sum, outputOptions{
		quiet:  f.common.quiet,
		json:   f.json,
		dryRun: f.dryRun,
		prune:  true,
	})
}
