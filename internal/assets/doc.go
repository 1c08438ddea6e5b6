// Package assets provides the HTML templates and CSS used to embed
// pre-rendered diagrams and to render standalone preview pages.
//
// # Loader Architecture
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (built-in assets)
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// A custom directory may override any single asset; the others keep their
// built-in version.
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   └── default.css      # preview page style
//	└── templates/
//	    ├── themed.html      # light/dark pair for a cached diagram
//	    ├── fallback.html    # placeholder for an uncached diagram
//	    └── page.html        # standalone preview page
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
