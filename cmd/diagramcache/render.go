package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	diagramcache "github.com/alnah/go-diagramcache"
	"github.com/alnah/go-diagramcache/internal/fileutil"
)

// Render command errors.
var (
	ErrReadContent = errors.New("failed to read content file")
	ErrWriteOutput = errors.New("failed to write output")
)

// outputPermissions is applied to pages written with -o.
const outputPermissions = 0o644

// runRender converts one content file to a standalone HTML page, inlining
// cached diagrams. Diagrams missing from the cache fall back to their source.
func runRender(ctx context.Context, args []string, env *Environment) error {
	f := &renderFlags{}
	rest, err := parseArgs(renderFlagSet(f), args)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return fmt.Errorf("%w: render takes exactly one content file, got %d", ErrUsage, len(rest))
	}
	input := rest[0]

	cfg, err := loadConfig(&f.common, env)
	if err != nil {
		return err
	}
	mergeCacheFlags(&f.cache, cfg)
	if f.assetPath != "" {
		cfg.Assets.BasePath = f.assetPath
	}
	if f.highlight != "" {
		cfg.Assets.HighlightStyle = f.highlight
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	content, err := os.ReadFile(input) // #nosec G304 -- user-provided content path
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReadContent, err)
	}

	logger := newLogger(env.Stderr, f.common.quiet, f.common.verbose)
	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	if err := store.Load(); err != nil {
		return err
	}

	e, err := diagramcache.NewEmbedder(store,
		diagramcache.WithAssetsDir(cfg.Assets.BasePath),
		diagramcache.WithHighlightStyle(cfg.Assets.HighlightStyle),
		diagramcache.WithEmbedderLogger(logger),
	)
	if err != nil {
		return err
	}

	opts := diagramcache.PageOptions{Title: pageTitle(f.title, string(content), input)}
	if f.output != "" {
		opts.SourceDir = filepath.Dir(input)
		opts.OutputDir = filepath.Dir(f.output)
	}

	page, err := e.RenderPage(ctx, content, opts)
	if err != nil {
		return err
	}

	if f.output == "" {
		_, err := fmt.Fprintln(env.Stdout, page)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.output), 0o750); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	if err := fileutil.WriteFileAtomic(f.output, []byte(page), outputPermissions); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	if !f.common.quiet {
		fmt.Fprintf(env.Stdout, "Created %s\n", f.output)
	}
	return nil
}

// firstHeadingPattern matches the first # heading in markdown content.
var firstHeadingPattern = regexp.MustCompile(`(?m)^#\s+(.+)$`)

// extractFirstHeading extracts the first # heading from markdown content.
func extractFirstHeading(markdown string) string {
	matches := firstHeadingPattern.FindStringSubmatch(markdown)
	if len(matches) >= 2 {
		return strings.TrimSpace(matches[1])
	}
	return ""
}

// pageTitle picks the --title flag, then the first heading, then the file name.
func pageTitle(flagTitle, content, path string) string {
	if flagTitle != "" {
		return flagTitle
	}
	if h := extractFirstHeading(content); h != "" {
		return h
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
