package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/alnah/go-diagramcache/internal/extract"
)

// ErrHTMLConversion indicates HTML conversion failed.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// HTMLConverter abstracts Markdown to HTML conversion.
type HTMLConverter interface {
	ToHTML(ctx context.Context, content []byte) (string, error)
}

// GoldmarkConverter converts Markdown to an HTML body fragment using goldmark.
// Diagram code blocks are handed to a DiagramResolver; other code blocks are
// highlighted with chroma.
type GoldmarkConverter struct {
	md goldmark.Markdown
}

// ConverterOption configures a GoldmarkConverter.
type ConverterOption func(*converterConfig)

type converterConfig struct {
	language string
	style    string
}

// WithDiagramLanguage sets the fenced code language treated as a diagram.
func WithDiagramLanguage(lang string) ConverterOption {
	return func(c *converterConfig) {
		if lang != "" {
			c.language = lang
		}
	}
}

// WithHighlightStyle sets the chroma style used for other code blocks.
func WithHighlightStyle(style string) ConverterOption {
	return func(c *converterConfig) {
		if style != "" {
			c.style = style
		}
	}
}

// NewGoldmarkConverter creates a GoldmarkConverter with GFM extensions,
// diagram embedding and syntax highlighting. It parses with the MDX-aware
// block parsers, so fences inside JSX wrappers are still converted.
func NewGoldmarkConverter(resolver DiagramResolver, opts ...ConverterOption) *GoldmarkConverter {
	cfg := converterConfig{language: DefaultDiagramLanguage, style: "github"}
	for _, opt := range opts {
		opt(&cfg)
	}

	md := goldmark.New(
		goldmark.WithParser(extract.NewParser()),
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			NewDiagramExtension(resolver, cfg.language),
			highlighting.NewHighlighting(
				highlighting.WithStyle(cfg.style),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
			// Raw HTML stays escaped; diagram markup is written by the
			// diagram renderer, not passed through as raw HTML.
		),
	)
	return &GoldmarkConverter{md: md}
}

// ToHTML converts Markdown content to an HTML body fragment.
// Goldmark has no context support, so conversion runs in a goroutine and
// the call returns early on cancellation.
func (c *GoldmarkConverter) ToHTML(ctx context.Context, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		if err := c.md.Convert(content, &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrHTMLConversion, err)}
			return
		}
		done <- result{html: buf.String()}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}

// Compile-time interface check.
var _ HTMLConverter = (*GoldmarkConverter)(nil)
