package main

import (
	"errors"

	diagramcache "github.com/alnah/go-diagramcache"
	"github.com/alnah/go-diagramcache/internal/assets"
	"github.com/alnah/go-diagramcache/internal/config"
)

// Exit codes for the diagramcache CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess  = 0 // Completed, even if some diagrams failed to render
	ExitGeneral  = 1 // General/unexpected error
	ExitUsage    = 2 // Invalid flags, config, or arguments
	ExitCacheDir = 3 // Cache directory or manifest not writable
	ExitRenderer = 4 // Renderer binary or browser unavailable
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Renderer errors (exit 4)
	if errors.Is(err, diagramcache.ErrRendererNotFound) ||
		errors.Is(err, diagramcache.ErrBrowserConnect) {
		return ExitRenderer
	}

	// Cache errors (exit 3)
	if errors.Is(err, diagramcache.ErrCacheDir) ||
		errors.Is(err, diagramcache.ErrManifestRead) ||
		errors.Is(err, diagramcache.ErrManifestWrite) ||
		errors.Is(err, diagramcache.ErrArtifactWrite) {
		return ExitCacheDir
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrUnsupportedShell) ||
		errors.Is(err, ErrReadContent) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, config.ErrInputTooLarge) ||
		errors.Is(err, diagramcache.ErrInvalidTheme) ||
		errors.Is(err, diagramcache.ErrContentDir) ||
		errors.Is(err, diagramcache.ErrAssets) ||
		errors.Is(err, assets.ErrInvalidBasePath) {
		return ExitUsage
	}

	return ExitGeneral
}
