package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alnah/go-diagramcache/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring config files.
type envConfig struct {
	ConfigPath  string        // DIAGRAMCACHE_CONFIG: config file name or path
	ContentDir  string        // DIAGRAMCACHE_CONTENT_DIR: content tree
	CacheDir    string        // DIAGRAMCACHE_CACHE_DIR: artifact directory
	Renderer    string        // DIAGRAMCACHE_RENDERER: mmdc or browser
	MMDC        string        // DIAGRAMCACHE_MMDC: mermaid-cli binary
	Timeout     time.Duration // DIAGRAMCACHE_TIMEOUT: per-diagram render timeout
	MetricsAddr string        // DIAGRAMCACHE_METRICS_ADDR: watch metrics listener
}

const envPrefix = "DIAGRAMCACHE_"

// knownEnvVars lists valid DIAGRAMCACHE_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"DIAGRAMCACHE_CONFIG":       true,
	"DIAGRAMCACHE_CONTENT_DIR":  true,
	"DIAGRAMCACHE_CACHE_DIR":    true,
	"DIAGRAMCACHE_RENDERER":     true,
	"DIAGRAMCACHE_MMDC":         true,
	"DIAGRAMCACHE_TIMEOUT":      true,
	"DIAGRAMCACHE_METRICS_ADDR": true,
	"DIAGRAMCACHE_CONTAINER":    true, // doctor: force container detection
}

// loadEnvConfig reads configuration from environment variables.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath:  os.Getenv("DIAGRAMCACHE_CONFIG"),
		ContentDir:  os.Getenv("DIAGRAMCACHE_CONTENT_DIR"),
		CacheDir:    os.Getenv("DIAGRAMCACHE_CACHE_DIR"),
		Renderer:    os.Getenv("DIAGRAMCACHE_RENDERER"),
		MMDC:        os.Getenv("DIAGRAMCACHE_MMDC"),
		MetricsAddr: os.Getenv("DIAGRAMCACHE_METRICS_ADDR"),
	}

	// Invalid or non-positive durations are ignored.
	if timeout := os.Getenv("DIAGRAMCACHE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized DIAGRAMCACHE_* variables.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, envPrefix) {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies set environment variables over config file values.
// Precedence: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeFlags)
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.ContentDir != "" {
		cfg.Content.Dir = env.ContentDir
	}
	if env.CacheDir != "" {
		cfg.Cache.Dir = env.CacheDir
	}
	if env.Renderer != "" {
		cfg.Renderer.Kind = env.Renderer
	}
	if env.MMDC != "" {
		cfg.Renderer.Binary = env.MMDC
	}
	if env.Timeout > 0 {
		cfg.Renderer.Timeout = env.Timeout
	}
	if env.MetricsAddr != "" {
		cfg.Watch.MetricsAddr = env.MetricsAddr
	}
}
