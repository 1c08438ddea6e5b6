package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-diagramcache/internal/config"
)

// ErrUsage wraps flag and argument errors.
var ErrUsage = errors.New("usage error")

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// contentFlags holds content discovery flags.
type contentFlags struct {
	extensions []string
	exclude    []string
}

// cacheFlags holds artifact store flags.
type cacheFlags struct {
	dir          string
	publicPrefix string
}

// rendererFlags holds renderer selection flags.
type rendererFlags struct {
	kind      string
	mmdc      string
	scriptURL string
	timeout   time.Duration
}

// buildFlags holds all flags for the build command.
type buildFlags struct {
	common   commonFlags
	content  contentFlags
	cache    cacheFlags
	renderer rendererFlags
	prune    bool
	dryRun   bool
	json     bool
}

// watchFlags holds all flags for the watch command.
type watchFlags struct {
	common      commonFlags
	content     contentFlags
	cache       cacheFlags
	renderer    rendererFlags
	debounce    time.Duration
	rateLimit   float64
	metricsAddr string
}

// renderFlags holds all flags for the render command.
type renderFlags struct {
	common    commonFlags
	cache     cacheFlags
	output    string
	title     string
	assetPath string
	highlight string
}

// pruneFlags holds all flags for the prune command.
type pruneFlags struct {
	common  commonFlags
	content contentFlags
	cache   cacheFlags
	dryRun  bool
	json    bool
}

// doctorFlags holds all flags for the doctor command.
type doctorFlags struct {
	common   commonFlags
	cache    cacheFlags
	renderer rendererFlags
	json     bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show progress logs")
}

// addContentFlags adds content discovery flags to a FlagSet.
func addContentFlags(fs *flag.FlagSet, f *contentFlags) {
	fs.StringSliceVar(&f.extensions, "ext", nil, "content file extensions (default .md,.mdx)")
	fs.StringSliceVar(&f.exclude, "exclude", nil, "directory glob patterns to skip")
}

// addCacheFlags adds artifact store flags to a FlagSet.
func addCacheFlags(fs *flag.FlagSet, f *cacheFlags) {
	fs.StringVar(&f.dir, "cache-dir", "", "artifact directory (default public/mermaid-cache)")
	fs.StringVar(&f.publicPrefix, "public-prefix", "", "URL prefix recorded in the manifest")
}

// addRendererFlags adds renderer flags to a FlagSet.
func addRendererFlags(fs *flag.FlagSet, f *rendererFlags) {
	fs.StringVar(&f.kind, "renderer", "", "renderer: mmdc, browser")
	fs.StringVar(&f.mmdc, "mmdc", "", "mermaid-cli binary name or path")
	fs.StringVar(&f.scriptURL, "script-url", "", "mermaid script URL for the browser renderer")
	fs.DurationVarP(&f.timeout, "timeout", "t", 0, "per-diagram render timeout (e.g., 30s, 2m)")
}

// newFlagSet returns a silent FlagSet; runMain prints usage on -h.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	return fs
}

// parseArgs parses args and wraps failures in ErrUsage. flag.ErrHelp is
// returned unwrapped.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return fs.Args(), nil
}

func buildFlagSet(f *buildFlags) *flag.FlagSet {
	fs := newFlagSet("build")
	addCommonFlags(fs, &f.common)
	addContentFlags(fs, &f.content)
	addCacheFlags(fs, &f.cache)
	addRendererFlags(fs, &f.renderer)
	fs.BoolVar(&f.prune, "prune", false, "remove dead manifest entries and orphan artifacts")
	fs.BoolVar(&f.dryRun, "dry-run", false, "report what would be rendered without rendering")
	fs.BoolVar(&f.json, "json", false, "print the summary as JSON")
	return fs
}

func watchFlagSet(f *watchFlags) *flag.FlagSet {
	fs := newFlagSet("watch")
	addCommonFlags(fs, &f.common)
	addContentFlags(fs, &f.content)
	addCacheFlags(fs, &f.cache)
	addRendererFlags(fs, &f.renderer)
	fs.DurationVar(&f.debounce, "debounce", 0, "quiet period after a save (default 500ms)")
	fs.Float64Var(&f.rateLimit, "rate", 0, "max file passes per second (0 = unlimited)")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	return fs
}

func renderFlagSet(f *renderFlags) *flag.FlagSet {
	fs := newFlagSet("render")
	addCommonFlags(fs, &f.common)
	addCacheFlags(fs, &f.cache)
	fs.StringVarP(&f.output, "output", "o", "", "output HTML file (default stdout)")
	fs.StringVar(&f.title, "title", "", "page title (default first heading)")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom template and style directory")
	fs.StringVar(&f.highlight, "highlight-style", "", "chroma style for code blocks")
	return fs
}

func pruneFlagSet(f *pruneFlags) *flag.FlagSet {
	fs := newFlagSet("prune")
	addCommonFlags(fs, &f.common)
	addContentFlags(fs, &f.content)
	addCacheFlags(fs, &f.cache)
	fs.BoolVar(&f.dryRun, "dry-run", false, "report what would be removed")
	fs.BoolVar(&f.json, "json", false, "print the summary as JSON")
	return fs
}

func doctorFlagSet(f *doctorFlags) *flag.FlagSet {
	fs := newFlagSet("doctor")
	addCommonFlags(fs, &f.common)
	addCacheFlags(fs, &f.cache)
	addRendererFlags(fs, &f.renderer)
	fs.BoolVar(&f.json, "json", false, "print the report as JSON")
	return fs
}

// mergeContentFlags merges CLI flags into config. CLI values override config values.
func mergeContentFlags(f *contentFlags, cfg *config.Config) {
	if len(f.extensions) > 0 {
		cfg.Content.Extensions = f.extensions
	}
	if len(f.exclude) > 0 {
		cfg.Content.Exclude = f.exclude
	}
}

func mergeCacheFlags(f *cacheFlags, cfg *config.Config) {
	if f.dir != "" {
		cfg.Cache.Dir = f.dir
	}
	if f.publicPrefix != "" {
		cfg.Cache.PublicPrefix = f.publicPrefix
	}
}

func mergeRendererFlags(f *rendererFlags, cfg *config.Config) {
	if f.kind != "" {
		cfg.Renderer.Kind = f.kind
	}
	if f.mmdc != "" {
		cfg.Renderer.Binary = f.mmdc
	}
	if f.scriptURL != "" {
		cfg.Renderer.ScriptURL = f.scriptURL
	}
	if f.timeout > 0 {
		cfg.Renderer.Timeout = f.timeout
	}
}
