package main

// Notes:
// - FlagSets are parsed directly; merge helpers are checked against
//   DefaultConfig so untouched fields keep their defaults.

import (
	"errors"
	"testing"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-diagramcache/internal/config"
)

// ---------------------------------------------------------------------------
// TestParseArgs - Error wrapping
// ---------------------------------------------------------------------------

func TestParseArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		args     []string
		wantErr  error
		wantRest []string
	}{
		{"positional kept", []string{"content", "--dry-run"}, nil, []string{"content"}},
		{"help unwrapped", []string{"--help"}, flag.ErrHelp, nil},
		{"unknown flag", []string{"--nope"}, ErrUsage, nil},
		{"bad duration", []string{"--timeout", "soon"}, ErrUsage, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rest, err := parseArgs(buildFlagSet(&buildFlags{}), tt.args)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("parseArgs() error = %v, want %v", err, tt.wantErr)
				}
				if errors.Is(err, flag.ErrHelp) && errors.Is(err, ErrUsage) {
					t.Error("ErrHelp must not be wrapped in ErrUsage")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseArgs() unexpected error: %v", err)
			}
			if len(rest) != len(tt.wantRest) || (len(rest) > 0 && rest[0] != tt.wantRest[0]) {
				t.Errorf("rest = %v, want %v", rest, tt.wantRest)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestBuildFlagSet - Flag registration
// ---------------------------------------------------------------------------

func TestBuildFlagSet(t *testing.T) {
	t.Parallel()

	f := &buildFlags{}
	_, err := parseArgs(buildFlagSet(f), []string{
		"-c", "site", "-q", "-v",
		"--ext", ".md,.markdown", "--exclude", "drafts", "--exclude", "vendor",
		"--cache-dir", "out", "--public-prefix", "/d",
		"--renderer", "browser", "--mmdc", "/bin/mmdc", "--script-url", "file:///m.js", "-t", "45s",
		"--prune", "--dry-run", "--json",
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if f.common.config != "site" || !f.common.quiet || !f.common.verbose {
		t.Errorf("common = %+v", f.common)
	}
	if len(f.content.extensions) != 2 || f.content.extensions[1] != ".markdown" {
		t.Errorf("extensions = %v", f.content.extensions)
	}
	if len(f.content.exclude) != 2 || f.content.exclude[1] != "vendor" {
		t.Errorf("exclude = %v", f.content.exclude)
	}
	if f.cache.dir != "out" || f.cache.publicPrefix != "/d" {
		t.Errorf("cache = %+v", f.cache)
	}
	if f.renderer.kind != "browser" || f.renderer.mmdc != "/bin/mmdc" || f.renderer.scriptURL != "file:///m.js" || f.renderer.timeout != 45*time.Second {
		t.Errorf("renderer = %+v", f.renderer)
	}
	if !f.prune || !f.dryRun || !f.json {
		t.Errorf("prune/dryRun/json = %v/%v/%v", f.prune, f.dryRun, f.json)
	}
}

func TestWatchFlagSet(t *testing.T) {
	t.Parallel()

	f := &watchFlags{}
	_, err := parseArgs(watchFlagSet(f), []string{"--debounce", "250ms", "--rate", "2.5", "--metrics-addr", ":9090"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.debounce != 250*time.Millisecond || f.rateLimit != 2.5 || f.metricsAddr != ":9090" {
		t.Errorf("watch flags = %+v", f)
	}
}

// ---------------------------------------------------------------------------
// TestMergeFlags - CLI values override config
// ---------------------------------------------------------------------------

func TestMergeFlags(t *testing.T) {
	t.Parallel()

	t.Run("empty flags keep config", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		mergeContentFlags(&contentFlags{}, cfg)
		mergeCacheFlags(&cacheFlags{}, cfg)
		mergeRendererFlags(&rendererFlags{}, cfg)

		want := config.DefaultConfig()
		if cfg.Content.Dir != want.Content.Dir || len(cfg.Content.Extensions) != len(want.Content.Extensions) {
			t.Errorf("content changed: %+v", cfg.Content)
		}
		if cfg.Cache != want.Cache {
			t.Errorf("cache changed: %+v", cfg.Cache)
		}
		if cfg.Renderer.Kind != want.Renderer.Kind || cfg.Renderer.Timeout != want.Renderer.Timeout {
			t.Errorf("renderer changed: %+v", cfg.Renderer)
		}
	})

	t.Run("set flags override", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		mergeContentFlags(&contentFlags{extensions: []string{".mdx"}, exclude: []string{"tmp"}}, cfg)
		mergeCacheFlags(&cacheFlags{dir: "c", publicPrefix: "/p"}, cfg)
		mergeRendererFlags(&rendererFlags{kind: "browser", mmdc: "m", scriptURL: "s", timeout: time.Second}, cfg)

		if cfg.Content.Extensions[0] != ".mdx" || cfg.Content.Exclude[0] != "tmp" {
			t.Errorf("content = %+v", cfg.Content)
		}
		if cfg.Cache.Dir != "c" || cfg.Cache.PublicPrefix != "/p" {
			t.Errorf("cache = %+v", cfg.Cache)
		}
		r := cfg.Renderer
		if r.Kind != "browser" || r.Binary != "m" || r.ScriptURL != "s" || r.Timeout != time.Second {
			t.Errorf("renderer = %+v", r)
		}
	})
}
