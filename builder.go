package diagramcache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gobwas/glob"
	"github.com/google/uuid"

	"github.com/alnah/go-diagramcache/internal/extract"
	"github.com/alnah/go-diagramcache/internal/fileutil"
	"github.com/alnah/go-diagramcache/internal/metrics"
	"github.com/alnah/go-diagramcache/internal/pipeline"
)

// BuildOptions controls a full build pass.
type BuildOptions struct {
	// Prune removes manifest entries and artifacts whose diagrams no longer
	// appear in the content tree. Without it the manifest only grows.
	Prune bool
	// DryRun reports what would be rendered or pruned without touching disk.
	DryRun bool
}

// Builder renders every diagram found under a content directory into a Store.
//
// A Builder is safe for concurrent BuildFile calls on different paths. Build
// and Prune are meant to run alone.
type Builder struct {
	cfg       builderConfig
	store     *Store
	renderer  Renderer
	logger    *slog.Logger
	extractor *extract.Extractor
	excludes  []glob.Glob
}

// NewBuilder creates a Builder over contentDir. The renderer is shared by all
// passes; the store should already be loaded or will be by Build.
func NewBuilder(contentDir string, store *Store, r Renderer, opts ...Option) (*Builder, error) {
	if store == nil {
		return nil, errors.New("diagramcache: nil store")
	}
	if r == nil {
		return nil, fmt.Errorf("%w: nil renderer", ErrRendererNotFound)
	}

	b := &Builder{
		cfg: builderConfig{
			contentDir:    contentDir,
			extensions:    DefaultExtensions,
			excludeDirs:   DefaultExcludeDirs,
			themes:        DefaultThemes(),
			svgClass:      DefaultSVGClass,
			renderTimeout: defaultRenderTimeout,
		},
		store:     store,
		renderer:  r,
		logger:    slog.Default(),
		extractor: extract.New(),
	}
	for _, opt := range opts {
		opt(b)
	}

	if err := validateThemes(b.cfg.themes); err != nil {
		return nil, err
	}
	for _, pattern := range b.cfg.excludeDirs {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		b.excludes = append(b.excludes, g)
	}
	return b, nil
}

// ContentDir returns the content root.
func (b *Builder) ContentDir() string { return b.cfg.contentDir }

// Store returns the artifact store the builder writes to.
func (b *Builder) Store() *Store { return b.store }

// Extensions returns the content file extensions the builder scans.
func (b *Builder) Extensions() []string { return b.cfg.extensions }

// ExcludeDirs returns the directory exclude patterns.
func (b *Builder) ExcludeDirs() []string { return b.cfg.excludeDirs }

// IsContentFile reports whether path has a scanned extension.
func (b *Builder) IsContentFile(path string) bool {
	return fileutil.HasExtension(path, b.cfg.extensions)
}

// IsExcludedDir reports whether a directory base name matches an exclude pattern.
func (b *Builder) IsExcludedDir(name string) bool {
	for _, g := range b.excludes {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Discovery
// ---------------------------------------------------------------------------

// Scan walks the content tree and returns every diagram occurrence in file
// order, with the number of content files read. Unreadable files are logged
// and skipped; an unreadable root is an error.
func (b *Builder) Scan(ctx context.Context) ([]Diagram, int, error) {
	root := b.cfg.contentDir
	info, err := os.Stat(root)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrContentDir, err)
	}
	if !info.IsDir() {
		return nil, 0, fmt.Errorf("%w: %s is not a directory", ErrContentDir, root)
	}

	var diagrams []Diagram
	files := 0
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			b.logger.Warn("skipping unreadable path", "path", path, "error", walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && b.IsExcludedDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !b.IsContentFile(path) {
			return nil
		}

		found, err := b.ScanFile(path)
		if err != nil {
			b.logger.Warn("skipping unreadable file", "path", path, "error", err)
			return nil
		}
		files++
		diagrams = append(diagrams, found...)
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, files, ctxErr
		}
		return nil, files, fmt.Errorf("%w: %v", ErrContentDir, err)
	}
	return diagrams, files, nil
}

// ScanFile extracts the diagrams of a single content file.
func (b *Builder) ScanFile(path string) ([]Diagram, error) {
	content, err := os.ReadFile(path) // #nosec G304 -- path comes from the content walk or watcher
	if err != nil {
		return nil, err
	}
	occs := b.extractor.Extract(content)
	diagrams := make([]Diagram, 0, len(occs))
	for _, o := range occs {
		diagrams = append(diagrams, Diagram{
			Key:    HashDiagram(o.Source),
			Source: o.Source,
			Path:   path,
			Line:   o.Line,
			Kind:   o.Kind,
		})
	}
	return diagrams, nil
}

// Dedupe keeps the first occurrence of each key, preserving order.
func Dedupe(diagrams []Diagram) []Diagram {
	seen := make(map[string]bool, len(diagrams))
	out := make([]Diagram, 0, len(diagrams))
	for _, d := range diagrams {
		if seen[d.Key] {
			continue
		}
		seen[d.Key] = true
		out = append(out, d)
	}
	return out
}

// ---------------------------------------------------------------------------
// Build passes
// ---------------------------------------------------------------------------

// Build runs a full pass: load the manifest, scan the content tree, render
// every uncached diagram and save the manifest once. Per-diagram failures are
// collected in the summary and never abort the pass.
//
// The returned error is non-nil only if the content tree or manifest cannot
// be read, the manifest cannot be saved, or ctx was canceled. On cancellation
// the summary of the diagrams processed so far is returned along with
// ctx.Err(), and the manifest is still saved.
func (b *Builder) Build(ctx context.Context, opts BuildOptions) (*Summary, error) {
	start := time.Now()
	logger := b.logger.With("run", uuid.NewString())

	if err := b.store.Load(); err != nil {
		return nil, err
	}

	diagrams, files, err := b.Scan(ctx)
	if err != nil {
		return nil, err
	}

	unique := Dedupe(diagrams)
	sum := &Summary{Files: files, Diagrams: len(diagrams), Unique: len(unique)}
	logger.Debug("scanned content", "dir", b.cfg.contentDir, "files", files, "diagrams", len(diagrams), "unique", len(unique))

	runErr := b.process(ctx, logger, unique, opts.DryRun, sum)

	if opts.Prune && runErr == nil {
		pruned, err := b.prune(logger, liveKeys(diagrams), opts.DryRun)
		if err != nil {
			return nil, err
		}
		sum.Pruned = pruned
	}

	if !opts.DryRun {
		if err := b.save(); err != nil {
			return nil, err
		}
	}

	sum.Duration = time.Since(start)
	logger.Info("build finished",
		"rendered", sum.Rendered, "cached", sum.Cached, "failed", sum.Failed,
		"pruned", sum.Pruned, "duration", sum.Duration)
	return sum, runErr
}

// BuildFile renders the uncached diagrams of one content file and saves the
// manifest if anything was added. A file that no longer exists yields an
// empty summary.
func (b *Builder) BuildFile(ctx context.Context, path string) (*Summary, error) {
	start := time.Now()
	logger := b.logger.With("run", uuid.NewString(), "file", path)

	diagrams, err := b.ScanFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Summary{}, nil
		}
		return nil, err
	}

	unique := Dedupe(diagrams)
	sum := &Summary{Files: 1, Diagrams: len(diagrams), Unique: len(unique)}
	runErr := b.process(ctx, logger, unique, false, sum)

	if sum.Rendered > 0 {
		if err := b.save(); err != nil {
			return nil, err
		}
	}
	sum.Duration = time.Since(start)
	return sum, runErr
}

// Plan reports which diagrams a build would render, without rendering.
func (b *Builder) Plan(ctx context.Context) (*Summary, error) {
	return b.Build(ctx, BuildOptions{DryRun: true})
}

// Prune scans the content tree and removes every manifest entry and artifact
// whose key is no longer referenced. Nothing is rendered.
func (b *Builder) Prune(ctx context.Context, dryRun bool) (*Summary, error) {
	start := time.Now()
	logger := b.logger.With("run", uuid.NewString())

	if err := b.store.Load(); err != nil {
		return nil, err
	}
	diagrams, files, err := b.Scan(ctx)
	if err != nil {
		return nil, err
	}

	sum := &Summary{Files: files, Diagrams: len(diagrams), Unique: len(Dedupe(diagrams))}
	sum.Pruned, err = b.prune(logger, liveKeys(diagrams), dryRun)
	if err != nil {
		return nil, err
	}
	if !dryRun && sum.Pruned > 0 {
		if err := b.save(); err != nil {
			return nil, err
		}
	}
	sum.Duration = time.Since(start)
	return sum, nil
}

// process renders each diagram not already cached. It stops between
// diagrams when ctx is canceled.
func (b *Builder) process(ctx context.Context, logger *slog.Logger, diagrams []Diagram, dryRun bool, sum *Summary) error {
	for _, d := range diagrams {
		if err := ctx.Err(); err != nil {
			return err
		}

		if b.store.Has(d.Key) {
			sum.Cached++
			metrics.ObserveRender(metrics.ResultCached, 0)
			continue
		}
		if dryRun {
			sum.Pending++
			logger.Info("would render diagram", "key", d.Key, "path", d.Path, "line", d.Line)
			continue
		}

		began := time.Now()
		err := b.renderDiagram(ctx, d)
		elapsed := time.Since(began)
		if err != nil {
			sum.Failed++
			sum.Failures = append(sum.Failures, Failure{Key: d.Key, Path: d.Path, Line: d.Line, Err: err})
			metrics.ObserveRender(metrics.ResultFailed, elapsed)
			logger.Warn("diagram failed", "key", d.Key, "path", d.Path, "line", d.Line, "error", err)
			continue
		}
		sum.Rendered++
		metrics.ObserveRender(metrics.ResultRendered, elapsed)
		logger.Info("rendered diagram", "key", d.Key, "path", d.Path, "line", d.Line, "duration", elapsed)
	}
	return nil
}

// renderDiagram renders both variants, post-processes them and records the
// manifest entry. Artifacts are written only once both variants succeeded.
func (b *Builder) renderDiagram(ctx context.Context, d Diagram) error {
	rctx, cancel := context.WithTimeout(ctx, b.cfg.renderTimeout)
	defer cancel()

	outputs, err := renderVariants(rctx, b.renderer, d.Source, b.cfg.themes)
	if err != nil {
		return err
	}

	cleaned := make(map[Variant][]byte, len(outputs))
	for _, v := range Variants {
		svg, err := pipeline.CleanSVG(outputs[v], b.cfg.svgClass)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrPostProcess, v, err)
		}
		cleaned[v] = svg
	}

	for _, v := range Variants {
		if err := b.store.WriteArtifact(d.Key, v, cleaned[v]); err != nil {
			return err
		}
	}
	b.store.Put(d.Key, b.store.EntryFor(d.Key))
	return nil
}

// prune deletes manifest entries and stray artifact files whose key is not live.
func (b *Builder) prune(logger *slog.Logger, live map[string]bool, dryRun bool) (int, error) {
	dead := make(map[string]bool)
	for _, key := range b.store.Keys() {
		if !live[key] {
			dead[key] = true
		}
	}
	orphans, err := b.store.ArtifactKeys()
	if err != nil {
		return 0, err
	}
	for _, key := range orphans {
		if !live[key] {
			dead[key] = true
		}
	}

	for key := range dead {
		if dryRun {
			logger.Info("would prune diagram", "key", key)
			continue
		}
		b.store.Delete(key)
		logger.Debug("pruned diagram", "key", key)
	}
	if !dryRun {
		metrics.PrunedTotal.Add(float64(len(dead)))
	}
	return len(dead), nil
}

func (b *Builder) save() error {
	if err := b.store.Save(); err != nil {
		return err
	}
	metrics.ManifestEntries.Set(float64(b.store.Len()))
	return nil
}

func liveKeys(diagrams []Diagram) map[string]bool {
	live := make(map[string]bool, len(diagrams))
	for _, d := range diagrams {
		live[d.Key] = true
	}
	return live
}
