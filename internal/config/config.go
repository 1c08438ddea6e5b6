// Package config loads diagramcache configuration from YAML or TOML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"

	"github.com/alnah/go-diagramcache/internal/fileutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
	ErrInputTooLarge   = errors.New("config exceeds maximum size")
)

// MaxInputSize limits config input to prevent memory exhaustion (default 1MB).
var MaxInputSize = 1 << 20

// Field length limits.
const (
	MaxPathLength      = 4096
	MaxPatternLength   = 256
	MaxExtensionLength = 16
	MaxThemeLength     = 50
	MaxURLLength       = 2048
	MaxArgLength       = 256
)

// Renderer kinds.
const (
	RendererMMDC    = "mmdc"
	RendererBrowser = "browser"
)

// Defaults matching a documentation site layout.
const (
	DefaultContentDir   = "content"
	DefaultCacheDir     = "public/mermaid-cache"
	DefaultPublicPrefix = "/mermaid-cache"
	DefaultLightTheme   = "default"
	DefaultDarkTheme    = "dark"
	DefaultTimeout      = 60 * time.Second
	DefaultDebounce     = 500 * time.Millisecond
)

// appName names the per-user config directory.
const appName = "diagramcache"

// Config holds all configuration for building and watching the diagram cache.
type Config struct {
	Content  ContentConfig  `yaml:"content" toml:"content"`
	Cache    CacheConfig    `yaml:"cache" toml:"cache"`
	Renderer RendererConfig `yaml:"renderer" toml:"renderer"`
	Themes   ThemesConfig   `yaml:"themes" toml:"themes"`
	Watch    WatchConfig    `yaml:"watch" toml:"watch"`
	Assets   AssetsConfig   `yaml:"assets" toml:"assets"`
}

// ContentConfig defines which content files are scanned.
type ContentConfig struct {
	Dir        string   `yaml:"dir" toml:"dir"`
	Extensions []string `yaml:"extensions" toml:"extensions"` // e.g. [".md", ".mdx"]
	Exclude    []string `yaml:"exclude" toml:"exclude"`       // directory glob patterns
}

// CacheConfig defines the artifact store location.
type CacheConfig struct {
	Dir          string `yaml:"dir" toml:"dir"`
	PublicPrefix string `yaml:"publicPrefix" toml:"publicPrefix"`
	Prune        bool   `yaml:"prune" toml:"prune"` // remove dead entries after each build
}

// RendererConfig selects and tunes the diagram renderer.
type RendererConfig struct {
	Kind      string        `yaml:"kind" toml:"kind"`           // "mmdc" (default) or "browser"
	Binary    string        `yaml:"binary" toml:"binary"`       // mmdc path; empty = search PATH
	Args      []string      `yaml:"args" toml:"args"`           // extra mmdc arguments
	ScriptURL string        `yaml:"scriptURL" toml:"scriptURL"` // browser renderer only
	Timeout   time.Duration `yaml:"timeout" toml:"timeout"`     // per diagram
	SVGClass  string        `yaml:"svgClass" toml:"svgClass"`
}

// ThemesConfig names the renderer theme used for each artifact variant.
type ThemesConfig struct {
	Light string `yaml:"light" toml:"light"`
	Dark  string `yaml:"dark" toml:"dark"`
}

// WatchConfig tunes the incremental watcher.
type WatchConfig struct {
	Debounce    time.Duration `yaml:"debounce" toml:"debounce"`
	RateLimit   float64       `yaml:"rateLimit" toml:"rateLimit"` // rebuilds per second; 0 = unlimited
	Burst       int           `yaml:"burst" toml:"burst"`
	MetricsAddr string        `yaml:"metricsAddr" toml:"metricsAddr"` // empty = no metrics endpoint
}

// AssetsConfig defines page rendering assets.
type AssetsConfig struct {
	BasePath       string `yaml:"basePath" toml:"basePath"` // Empty = use embedded assets
	HighlightStyle string `yaml:"highlightStyle" toml:"highlightStyle"`
}

// Validate checks field lengths and value ranges.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	if err := validateFieldLength("content.dir", c.Content.Dir, MaxPathLength); err != nil {
		return err
	}
	for i, ext := range c.Content.Extensions {
		field := fmt.Sprintf("content.extensions[%d]", i)
		if err := validateFieldLength(field, ext, MaxExtensionLength); err != nil {
			return err
		}
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("%w: %s: %q must start with '.'", ErrInvalidValue, field, ext)
		}
	}
	for i, pattern := range c.Content.Exclude {
		field := fmt.Sprintf("content.exclude[%d]", i)
		if err := validateFieldLength(field, pattern, MaxPatternLength); err != nil {
			return err
		}
		if pattern == "" {
			return fmt.Errorf("%w: %s: empty pattern", ErrInvalidValue, field)
		}
	}

	if err := validateFieldLength("cache.dir", c.Cache.Dir, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("cache.publicPrefix", c.Cache.PublicPrefix, MaxURLLength); err != nil {
		return err
	}

	switch c.Renderer.Kind {
	case "", RendererMMDC, RendererBrowser:
	default:
		return fmt.Errorf("%w: renderer.kind %q (must be %s or %s)", ErrInvalidValue, c.Renderer.Kind, RendererMMDC, RendererBrowser)
	}
	if err := validateFieldLength("renderer.binary", c.Renderer.Binary, MaxPathLength); err != nil {
		return err
	}
	for i, arg := range c.Renderer.Args {
		if err := validateFieldLength(fmt.Sprintf("renderer.args[%d]", i), arg, MaxArgLength); err != nil {
			return err
		}
	}
	if err := validateFieldLength("renderer.scriptURL", c.Renderer.ScriptURL, MaxURLLength); err != nil {
		return err
	}
	if c.Renderer.Timeout < 0 {
		return fmt.Errorf("%w: renderer.timeout must not be negative, got %s", ErrInvalidValue, c.Renderer.Timeout)
	}
	if err := validateFieldLength("renderer.svgClass", c.Renderer.SVGClass, MaxThemeLength); err != nil {
		return err
	}

	if err := validateFieldLength("themes.light", c.Themes.Light, MaxThemeLength); err != nil {
		return err
	}
	if err := validateFieldLength("themes.dark", c.Themes.Dark, MaxThemeLength); err != nil {
		return err
	}

	if c.Watch.Debounce < 0 {
		return fmt.Errorf("%w: watch.debounce must not be negative, got %s", ErrInvalidValue, c.Watch.Debounce)
	}
	if c.Watch.RateLimit < 0 {
		return fmt.Errorf("%w: watch.rateLimit must not be negative, got %.2f", ErrInvalidValue, c.Watch.RateLimit)
	}
	if c.Watch.Burst < 0 {
		return fmt.Errorf("%w: watch.burst must not be negative, got %d", ErrInvalidValue, c.Watch.Burst)
	}

	if err := validateFieldLength("assets.basePath", c.Assets.BasePath, MaxPathLength); err != nil {
		return err
	}
	return validateFieldLength("assets.highlightStyle", c.Assets.HighlightStyle, MaxThemeLength)
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Content: ContentConfig{
			Dir:        DefaultContentDir,
			Extensions: []string{".md", ".mdx"},
			Exclude:    []string{"node_modules", ".git", ".next"},
		},
		Cache: CacheConfig{
			Dir:          DefaultCacheDir,
			PublicPrefix: DefaultPublicPrefix,
		},
		Renderer: RendererConfig{
			Kind:    RendererMMDC,
			Timeout: DefaultTimeout,
		},
		Themes: ThemesConfig{
			Light: DefaultLightTheme,
			Dark:  DefaultDarkTheme,
		},
		Watch: WatchConfig{
			Debounce: DefaultDebounce,
		},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator or a known extension, it's treated
// as a file path. Otherwise, it's treated as a config name and searched in
// standard locations. Returns error if the file is not found (no silent fallback).
//
// Values absent from the file keep their DefaultConfig value.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !isFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := decode(configPath, data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// decode parses data into cfg, choosing the format from the file extension.
// Unknown keys are rejected in both formats.
func decode(path string, data []byte, cfg *Config) error {
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrConfigParse, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return fmt.Errorf("%w: unknown fields: %s", ErrConfigParse, strings.Join(keys, ", "))
		}
	default:
		if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
			return fmt.Errorf("%w: %v", ErrConfigParse, err)
		}
	}
	return nil
}

// configExtensions lists the extensions tried when resolving a config name.
var configExtensions = []string{".yaml", ".yml", ".toml"}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	if fileutil.IsFilePath(s) {
		return true
	}
	ext := strings.ToLower(filepath.Ext(s))
	for _, e := range configExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// SearchPaths returns the candidate files for a config name, in lookup order:
// current directory first, then the user config directory.
func SearchPaths(name string) []string {
	paths := make([]string, 0, len(configExtensions)*2)
	for _, ext := range configExtensions {
		paths = append(paths, name+ext)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		for _, ext := range configExtensions {
			paths = append(paths, filepath.Join(dir, appName, name+ext))
		}
	}
	return paths
}

// resolveConfigPath searches for a config file by name in standard locations.
func resolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}
