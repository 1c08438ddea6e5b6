package main

// Notes:
// - loadEnvConfig: we test every variable, and that invalid or non-positive
//   timeouts are ignored rather than reported.
// - applyEnvConfig: set variables override config file values; unset ones
//   leave them alone.
// - Tests use t.Setenv() which prevents t.Parallel() at parent level.

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-diagramcache/internal/config"
)

// ---------------------------------------------------------------------------
// TestLoadEnvConfig - Environment variable loading
// ---------------------------------------------------------------------------

func TestLoadEnvConfig(t *testing.T) {
	t.Run("all variables", func(t *testing.T) {
		t.Setenv("DIAGRAMCACHE_CONFIG", "/etc/site.yaml")
		t.Setenv("DIAGRAMCACHE_CONTENT_DIR", "docs")
		t.Setenv("DIAGRAMCACHE_CACHE_DIR", "static/diagrams")
		t.Setenv("DIAGRAMCACHE_RENDERER", "browser")
		t.Setenv("DIAGRAMCACHE_MMDC", "/opt/mmdc")
		t.Setenv("DIAGRAMCACHE_TIMEOUT", "2m")
		t.Setenv("DIAGRAMCACHE_METRICS_ADDR", ":9090")

		got := *loadEnvConfig()
		want := envConfig{
			ConfigPath:  "/etc/site.yaml",
			ContentDir:  "docs",
			CacheDir:    "static/diagrams",
			Renderer:    "browser",
			MMDC:        "/opt/mmdc",
			Timeout:     2 * time.Minute,
			MetricsAddr: ":9090",
		}
		if got != want {
			t.Errorf("loadEnvConfig() = %+v, want %+v", got, want)
		}
	})

	for _, value := range []string{"soon", "-5s", "0s"} {
		t.Run("ignored timeout "+value, func(t *testing.T) {
			t.Setenv("DIAGRAMCACHE_TIMEOUT", value)
			if got := loadEnvConfig().Timeout; got != 0 {
				t.Errorf("Timeout = %v, want 0", got)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestWarnUnknownEnvVars - Unknown variable detection
// ---------------------------------------------------------------------------

func TestWarnUnknownEnvVars(t *testing.T) {
	t.Run("warns on unknown DIAGRAMCACHE_ vars", func(t *testing.T) {
		t.Setenv("DIAGRAMCACHE_CAHCE_DIR", "typo")

		var buf bytes.Buffer
		warnUnknownEnvVars(&buf)

		if !strings.Contains(buf.String(), "DIAGRAMCACHE_CAHCE_DIR") || !strings.Contains(buf.String(), "typo?") {
			t.Errorf("expected typo warning, got: %s", buf.String())
		}
	})

	t.Run("no warning for known vars", func(t *testing.T) {
		for name := range knownEnvVars {
			t.Setenv(name, "x")
		}

		var buf bytes.Buffer
		warnUnknownEnvVars(&buf)

		if buf.Len() > 0 {
			t.Errorf("should not warn for known vars, got: %s", buf.String())
		}
	})

	t.Run("ignores other vars", func(t *testing.T) {
		t.Setenv("SOME_OTHER_VAR", "value")

		var buf bytes.Buffer
		warnUnknownEnvVars(&buf)

		if strings.Contains(buf.String(), "SOME_OTHER_VAR") {
			t.Errorf("should not warn about SOME_OTHER_VAR")
		}
	})
}

// ---------------------------------------------------------------------------
// TestApplyEnvConfig - Env over config file
// ---------------------------------------------------------------------------

func TestApplyEnvConfig(t *testing.T) {
	t.Run("set variables override config", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Cache.Dir = "from-file"

		applyEnvConfig(&envConfig{
			ContentDir:  "docs",
			CacheDir:    "from-env",
			Renderer:    "browser",
			MMDC:        "/opt/mmdc",
			Timeout:     time.Minute,
			MetricsAddr: ":9090",
		}, cfg)

		if cfg.Content.Dir != "docs" || cfg.Cache.Dir != "from-env" {
			t.Errorf("dirs = %q, %q", cfg.Content.Dir, cfg.Cache.Dir)
		}
		if cfg.Renderer.Kind != "browser" || cfg.Renderer.Binary != "/opt/mmdc" || cfg.Renderer.Timeout != time.Minute {
			t.Errorf("renderer = %+v", cfg.Renderer)
		}
		if cfg.Watch.MetricsAddr != ":9090" {
			t.Errorf("MetricsAddr = %q", cfg.Watch.MetricsAddr)
		}
	})

	t.Run("unset variables keep config", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Cache.Dir = "from-file"
		cfg.Renderer.Timeout = 90 * time.Second

		applyEnvConfig(&envConfig{}, cfg)

		if cfg.Cache.Dir != "from-file" || cfg.Renderer.Timeout != 90*time.Second {
			t.Errorf("config changed: %+v", cfg)
		}
		if cfg.Content.Dir != config.DefaultContentDir {
			t.Errorf("Content.Dir = %q", cfg.Content.Dir)
		}
	})
}

// ---------------------------------------------------------------------------
// TestRunMain_EnvPrecedence - flags > env > defaults
// ---------------------------------------------------------------------------

func TestRunMain_EnvPrecedence(t *testing.T) {
	content, cache := workspace(t, map[string]string{"a.md": fence(flowchart)})
	envCache := filepath.Join(t.TempDir(), "env-cache")
	t.Setenv("DIAGRAMCACHE_CONTENT_DIR", content)
	t.Setenv("DIAGRAMCACHE_CACHE_DIR", envCache)

	env, _, stderr := testEnv(&svgRenderer{})
	if code := runMain([]string{"diagramcache", "build"}, env); code != ExitSuccess {
		t.Fatalf("runMain() = %d\nstderr: %s", code, stderr.String())
	}
	if _, err := os.Stat(filepath.Join(envCache, "manifest.json")); err != nil {
		t.Errorf("env cache dir not used: %v", err)
	}

	if code := runMain([]string{"diagramcache", "build", "--cache-dir", cache}, env); code != ExitSuccess {
		t.Fatalf("runMain() = %d", code)
	}
	if _, err := os.Stat(filepath.Join(cache, "manifest.json")); err != nil {
		t.Errorf("--cache-dir should win over env: %v", err)
	}
}

// ---------------------------------------------------------------------------
// TestKnownEnvVars - Registry consistency
// ---------------------------------------------------------------------------

func TestKnownEnvVars(t *testing.T) {
	t.Parallel()

	for name := range knownEnvVars {
		if !strings.HasPrefix(name, envPrefix) {
			t.Errorf("%s lacks prefix %s", name, envPrefix)
		}
	}
}
