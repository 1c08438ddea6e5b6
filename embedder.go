package diagramcache

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"github.com/alnah/go-diagramcache/internal/assets"
	"github.com/alnah/go-diagramcache/internal/extract"
	"github.com/alnah/go-diagramcache/internal/pipeline"
)

// Embedding is the cached pair of artifacts for one diagram source.
type Embedding struct {
	Key   string
	Entry Entry
	Light []byte
	Dark  []byte
}

// EmbedderOption configures an Embedder.
type EmbedderOption func(*embedderConfig)

type embedderConfig struct {
	assetsDir      string
	highlightStyle string
	logger         *slog.Logger
}

// WithAssetsDir sets a directory whose templates and styles override the
// built-in ones.
func WithAssetsDir(dir string) EmbedderOption {
	return func(c *embedderConfig) {
		c.assetsDir = dir
	}
}

// WithHighlightStyle sets the chroma style for non-diagram code blocks in
// rendered pages.
func WithHighlightStyle(style string) EmbedderOption {
	return func(c *embedderConfig) {
		if style != "" {
			c.highlightStyle = style
		}
	}
}

// WithEmbedderLogger sets the logger used to report cache misses.
func WithEmbedderLogger(l *slog.Logger) EmbedderOption {
	return func(c *embedderConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Embedder resolves diagram sources to cached artifact markup at page render
// time. It only reads the store; a miss always degrades to a client-side
// placeholder.
type Embedder struct {
	store        *Store
	templates    *assets.TemplateSet
	style        string
	logger       *slog.Logger
	preprocessor pipeline.MarkdownPreprocessor
	converter    pipeline.HTMLConverter
}

// NewEmbedder creates an Embedder reading from store. The store's manifest
// should already be loaded.
func NewEmbedder(store *Store, opts ...EmbedderOption) (*Embedder, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: nil store", ErrCacheDir)
	}
	cfg := embedderConfig{highlightStyle: "github", logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	resolver, err := assets.NewAssetResolver(cfg.assetsDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssets, err)
	}
	if resolver.HasCustomLoader() {
		cfg.logger.Debug("using custom assets", "dir", cfg.assetsDir)
	}
	templates, err := assets.LoadTemplateSet(resolver)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssets, err)
	}
	style, err := resolver.LoadStyle(assets.DefaultStyleName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssets, err)
	}

	e := &Embedder{
		store:        store,
		templates:    templates,
		style:        style,
		logger:       cfg.logger,
		preprocessor: pipeline.NewComponentPreprocessor(nil),
	}
	e.converter = pipeline.NewGoldmarkConverter(e, pipeline.WithHighlightStyle(cfg.highlightStyle))
	return e, nil
}

// Lookup returns the cached artifacts for source. It reports false when the
// manifest has no entry or either artifact cannot be read.
func (e *Embedder) Lookup(source string) (Embedding, bool) {
	if extract.TrimSource(source) == "" {
		return Embedding{}, false
	}
	key := HashDiagram(source)
	entry, ok := e.store.Get(key)
	if !ok {
		return Embedding{}, false
	}

	light, err := e.store.ReadArtifact(key, VariantLight)
	if err != nil {
		e.logger.Debug("artifact unreadable", "key", key, "variant", VariantLight, "error", err)
		return Embedding{}, false
	}
	dark, err := e.store.ReadArtifact(key, VariantDark)
	if err != nil {
		e.logger.Debug("artifact unreadable", "key", key, "variant", VariantDark, "error", err)
		return Embedding{}, false
	}
	return Embedding{Key: key, Entry: entry, Light: light, Dark: dark}, true
}

// HTML returns the themed markup for a cached diagram, or a placeholder
// carrying the escaped source for client-side rendering.
func (e *Embedder) HTML(source string) string {
	if emb, ok := e.Lookup(source); ok {
		out, err := e.templates.Themed(assets.ThemedData{
			Key:   emb.Key,
			Light: template.HTML(emb.Light), // #nosec G203 -- sanitized renderer output from our own cache
			Dark:  template.HTML(emb.Dark),  // #nosec G203
		})
		if err == nil {
			return strings.TrimSpace(out)
		}
		e.logger.Warn("themed template failed", "key", emb.Key, "error", err)
	}
	return e.fallback(source)
}

// DiagramHTML implements pipeline.DiagramResolver.
func (e *Embedder) DiagramHTML(source string) string {
	return e.HTML(source)
}

func (e *Embedder) fallback(source string) string {
	source = extract.TrimSource(source)
	out, err := e.templates.Fallback(assets.FallbackData{Key: HashDiagram(source), Source: source})
	if err != nil {
		e.logger.Warn("fallback template failed", "error", err)
		return `<pre class="mermaid-fallback">` + template.HTMLEscapeString(source) + `</pre>`
	}
	return strings.TrimSpace(out)
}

// PageOptions controls RenderPage.
type PageOptions struct {
	Title string
	// SourceDir and OutputDir, when both set, relink relative image and link
	// references so they resolve from the output location.
	SourceDir string
	OutputDir string
}

// RenderPage converts one Markdown or MDX document into a standalone HTML
// page with every diagram resolved through the cache.
func (e *Embedder) RenderPage(ctx context.Context, content []byte, opts PageOptions) (string, error) {
	md := e.preprocessor.PreprocessMarkdown(ctx, content)

	body, err := e.converter.ToHTML(ctx, md)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPageRender, err)
	}

	if opts.SourceDir != "" && opts.OutputDir != "" {
		body, err = pipeline.RelinkFragment(body, opts.SourceDir, opts.OutputDir)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrPageRender, err)
		}
	}

	title := opts.Title
	if title == "" {
		title = "Diagrams"
	}
	page, err := e.templates.Page(assets.PageData{
		Title: title,
		Style: template.CSS(e.style), // #nosec G203 -- bundled or user-provided stylesheet
		Body:  template.HTML(body),   // #nosec G203 -- goldmark output with raw HTML disabled
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPageRender, err)
	}
	return page, nil
}

// Compile-time interface check.
var _ pipeline.DiagramResolver = (*Embedder)(nil)
