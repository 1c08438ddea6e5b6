// Package diagramcache pre-renders Mermaid diagrams found in Markdown and MDX
// content into a content-addressed cache of light and dark SVG files.
//
// # Quick Start
//
// Open the artifact store, pick a renderer, and build:
//
//	store, err := diagramcache.OpenStore("public/mermaid-cache")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	r, err := diagramcache.NewMermaidCLI("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	b, err := diagramcache.NewBuilder("content", store, r)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sum, err := b.Build(ctx, diagramcache.BuildOptions{})
//
// Build scans the content tree, renders every diagram whose key is not yet
// cached, and saves manifest.json. A failed diagram is reported in the
// Summary and retried on the next build; it never aborts the pass.
//
// # Keys and Artifacts
//
// A diagram's key is HashDiagram of its trimmed source: twelve lowercase hex
// digits. Each key owns two files, {key}-light.svg and {key}-dark.svg, and a
// manifest entry recording their public paths:
//
//	{"a1b2c3d4e5f6": {"light": "/mermaid-cache/a1b2c3d4e5f6-light.svg",
//	                  "dark":  "/mermaid-cache/a1b2c3d4e5f6-dark.svg"}}
//
// Identical sources anywhere in the tree share one entry. Entries are never
// removed by a plain build; use BuildOptions.Prune or Builder.Prune.
//
// # Renderers
//
// MermaidCLI shells out to mmdc from @mermaid-js/mermaid-cli. BrowserRenderer
// runs Mermaid in headless Chrome through go-rod and needs no Node toolchain.
// Any type with a Render method satisfies Renderer.
//
// # Watching
//
// Watch re-renders the diagrams of each content file as it is saved, with
// debouncing and an optional rate limit:
//
//	err := diagramcache.Watch(ctx, b, diagramcache.WatchOptions{
//	    Debounce: 300 * time.Millisecond,
//	})
//
// # Embedding
//
// Embedder resolves a diagram source to its cached artifacts at page build
// time. HTML inlines both variants for CSS theme switching, or falls back to
// the escaped source when the diagram is not cached. RenderPage turns a whole
// document into a standalone HTML page.
//
// # Error Handling
//
// Errors wrap sentinel values for errors.Is checks:
//
//	if errors.Is(err, diagramcache.ErrRendererNotFound) {
//	    // mmdc missing: npm install -g @mermaid-js/mermaid-cli
//	}
//
// Available sentinels are declared in errors.go.
package diagramcache
