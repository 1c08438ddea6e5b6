package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	flag "github.com/spf13/pflag"

	diagramcache "github.com/alnah/go-diagramcache"
	"github.com/alnah/go-diagramcache/internal/config"
	"github.com/alnah/go-diagramcache/internal/fileutil"
	"github.com/alnah/go-diagramcache/internal/hints"
)

// runMain dispatches args[1] and returns the process exit code.
func runMain(args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	cmd, rest := args[1], args[2:]

	var err error
	switch cmd {
	case "build":
		err = runBuild(ctx, rest, env)
	case "watch":
		err = runWatch(ctx, rest, env)
	case "render":
		err = runRender(ctx, rest, env)
	case "prune":
		err = runPrune(ctx, rest, env)
	case "doctor":
		return runDoctorCmd(rest, env)
	case "completion":
		err = runCompletion(rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "diagramcache %s\n", Version)
		return ExitSuccess
	case "help", "-h", "--help":
		runHelp(rest, env)
		return ExitSuccess
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}

	if errors.Is(err, flag.ErrHelp) {
		runHelp([]string{cmd}, env)
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err))
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// hintFor returns the actionable hint matching err, or "".
func hintFor(err error) string {
	switch {
	case errors.Is(err, diagramcache.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, diagramcache.ErrRendererNotFound):
		return hints.ForRendererNotFound()
	case errors.Is(err, diagramcache.ErrCacheDir),
		errors.Is(err, diagramcache.ErrManifestWrite),
		errors.Is(err, diagramcache.ErrArtifactWrite):
		return hints.ForCacheDir()
	case errors.Is(err, diagramcache.ErrContentDir):
		return hints.ForContentDir()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	}
	return ""
}

// loadConfig resolves the config file (flag, then DIAGRAMCACHE_CONFIG) and
// applies environment overrides. Flags are merged by the caller.
func loadConfig(common *commonFlags, env *Environment) (*config.Config, error) {
	if !common.quiet {
		warnUnknownEnvVars(env.Stderr)
	}
	envCfg := loadEnvConfig()

	name := common.config
	if name == "" {
		name = envCfg.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) && !fileutil.IsFilePath(name) {
				return nil, fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(config.SearchPaths(name)))
			}
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	applyEnvConfig(envCfg, cfg)
	return cfg, nil
}

// contentDirArg applies an optional positional content directory.
func contentDirArg(cmd string, rest []string, cfg *config.Config) error {
	switch len(rest) {
	case 0:
		return nil
	case 1:
		cfg.Content.Dir = rest[0]
		return nil
	default:
		return fmt.Errorf("%w: %s takes at most one content directory, got %d", ErrUsage, cmd, len(rest))
	}
}

// openStore opens the artifact store described by cfg.
func openStore(cfg *config.Config, logger *slog.Logger) (*diagramcache.Store, error) {
	return diagramcache.OpenStore(cfg.Cache.Dir,
		diagramcache.WithPublicPrefix(cfg.Cache.PublicPrefix),
		diagramcache.WithStoreLogger(logger),
	)
}

// newBuilder maps cfg onto builder options.
func newBuilder(cfg *config.Config, store *diagramcache.Store, r diagramcache.Renderer, logger *slog.Logger) (*diagramcache.Builder, error) {
	opts := []diagramcache.Option{
		diagramcache.WithLogger(logger),
		diagramcache.WithExtensions(cfg.Content.Extensions...),
		diagramcache.WithExcludeDirs(cfg.Content.Exclude...),
		diagramcache.WithSVGClass(cfg.Renderer.SVGClass),
		diagramcache.WithThemes(
			diagramcache.Theme{Variant: diagramcache.VariantLight, Name: orDefault(cfg.Themes.Light, config.DefaultLightTheme)},
			diagramcache.Theme{Variant: diagramcache.VariantDark, Name: orDefault(cfg.Themes.Dark, config.DefaultDarkTheme)},
		),
	}
	if cfg.Renderer.Timeout > 0 {
		opts = append(opts, diagramcache.WithRenderTimeout(cfg.Renderer.Timeout))
	}
	return diagramcache.NewBuilder(cfg.Content.Dir, store, r, opts...)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// offlineRenderer backs passes that never render, such as dry runs and prune.
type offlineRenderer struct{}

func (offlineRenderer) Render(context.Context, string, diagramcache.Theme) ([]byte, error) {
	return nil, fmt.Errorf("%w: no renderer configured for this pass", diagramcache.ErrRendererNotFound)
}
