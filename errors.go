package diagramcache

import "errors"

// Sentinel errors for library operations.
var (
	ErrEmptySource      = errors.New("diagram source cannot be empty")
	ErrRendererNotFound = errors.New("diagram renderer not found")
	ErrRenderFailed     = errors.New("diagram render failed")
	ErrPostProcess      = errors.New("SVG post-processing failed")
	ErrInvalidTheme     = errors.New("invalid theme")

	// Cache errors.
	ErrCacheDir      = errors.New("failed to create cache directory")
	ErrManifestRead  = errors.New("failed to read manifest")
	ErrManifestWrite = errors.New("failed to write manifest")
	ErrArtifactWrite = errors.New("failed to write artifact")

	// Content errors.
	ErrContentDir = errors.New("content directory not readable")

	// Embedding errors.
	ErrAssets     = errors.New("failed to load assets")
	ErrPageRender = errors.New("page rendering failed")

	// Browser renderer errors.
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageLoad       = errors.New("failed to load page")
)
