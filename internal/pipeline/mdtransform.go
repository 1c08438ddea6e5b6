package pipeline

import (
	"context"

	"github.com/alnah/go-diagramcache/internal/extract"
)

// MarkdownPreprocessor defines the contract for markdown preprocessing.
type MarkdownPreprocessor interface {
	PreprocessMarkdown(ctx context.Context, content []byte) []byte
}

// ComponentPreprocessor prepares MDX content for a CommonMark converter:
// line endings are normalised and diagram component invocations become
// fenced blocks, so both authoring forms reach the diagram extension.
type ComponentPreprocessor struct {
	extractor *extract.Extractor
}

// NewComponentPreprocessor creates a preprocessor using e, or the default
// Mermaid extractor when e is nil.
func NewComponentPreprocessor(e *extract.Extractor) *ComponentPreprocessor {
	if e == nil {
		e = extract.New()
	}
	return &ComponentPreprocessor{extractor: e}
}

// PreprocessMarkdown returns content ready for conversion. On cancellation
// the content is returned unchanged.
func (p *ComponentPreprocessor) PreprocessMarkdown(ctx context.Context, content []byte) []byte {
	if ctx.Err() != nil {
		return content
	}
	return p.extractor.RewriteComponents(content)
}

// Compile-time interface check.
var _ MarkdownPreprocessor = (*ComponentPreprocessor)(nil)
