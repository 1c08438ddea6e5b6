// Package extract finds diagram sources in Markdown and MDX content.
//
// Two authoring forms are recognised:
//
//   - fenced code blocks tagged with the diagram language:
//
//     ```mermaid
//     graph TD
//     A --> B
//     ```
//
//   - component invocations carrying the source in an attribute:
//
//     <Mermaid chart="graph TD\nA --> B" />
//     <Mermaid chart={`graph TD
//     A --> B`} />
//
// Fenced blocks are located with goldmark's CommonMark parser, minus HTML
// blocks so fences nested in JSX wrappers are still seen. Component
// invocations are located with a small hand-written tag scanner, since MDX
// JSX is not CommonMark.
package extract

import (
	"bytes"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Kind tags where an occurrence came from.
type Kind int

const (
	// FencedBlock is a fenced code block with the diagram language tag.
	FencedBlock Kind = iota + 1
	// ComponentAttribute is a component invocation with an inline source attribute.
	ComponentAttribute
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case FencedBlock:
		return "fenced"
	case ComponentAttribute:
		return "component"
	default:
		return "unknown"
	}
}

// Defaults match the Mermaid authoring syntax used by the docs site.
const (
	DefaultLanguage  = "mermaid"
	DefaultComponent = "Mermaid"
	DefaultAttribute = "chart"
)

// Occurrence is one diagram found in a file.
type Occurrence struct {
	Kind   Kind
	Source string // trimmed diagram source
	Offset int    // byte offset of the block or tag start
	Line   int    // 1-based line of Offset
}

// Extractor finds diagram occurrences. The zero value is not usable; use New.
type Extractor struct {
	language  string
	component string
	attribute string
	md        goldmark.Markdown
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLanguage sets the fenced code block language tag.
func WithLanguage(lang string) Option {
	return func(e *Extractor) {
		if lang != "" {
			e.language = lang
		}
	}
}

// WithComponent sets the component name and source attribute.
func WithComponent(name, attribute string) Option {
	return func(e *Extractor) {
		if name != "" {
			e.component = name
		}
		if attribute != "" {
			e.attribute = attribute
		}
	}
}

// New creates an Extractor with Mermaid defaults.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		language:  DefaultLanguage,
		component: DefaultComponent,
		attribute: DefaultAttribute,
		md:        goldmark.New(goldmark.WithParser(NewParser())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Language returns the fenced block language tag this extractor matches.
func (e *Extractor) Language() string { return e.language }

// Extract returns every diagram occurrence in content, ordered by position.
// Empty sources are dropped.
func (e *Extractor) Extract(content []byte) []Occurrence {
	content = NormalizeNewlines(content)

	occ := e.fenced(content)
	occ = append(occ, e.components(content)...)

	sort.SliceStable(occ, func(i, j int) bool { return occ[i].Offset < occ[j].Offset })

	out := occ[:0]
	for _, o := range occ {
		if o.Source == "" {
			continue
		}
		o.Line = lineOf(content, o.Offset)
		out = append(out, o)
	}
	return out
}

// fenced walks the CommonMark AST for fenced blocks tagged with the language.
func (e *Extractor) fenced(content []byte) []Occurrence {
	doc := e.md.Parser().Parse(text.NewReader(content))

	var occ []Occurrence
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		block, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		if string(block.Language(content)) != e.language {
			return ast.WalkSkipChildren, nil
		}

		var buf bytes.Buffer
		lines := block.Lines()
		offset := 0
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			if i == 0 {
				offset = seg.Start
			}
			buf.Write(seg.Value(content))
		}
		if lines.Len() == 0 && block.Info != nil {
			offset = block.Info.Segment.Start
		}
		occ = append(occ, Occurrence{
			Kind:   FencedBlock,
			Source: TrimSource(buf.String()),
			Offset: fenceStart(content, offset),
		})
		return ast.WalkSkipChildren, nil
	})
	return occ
}

// components scans for <Component attr=...> invocations.
func (e *Extractor) components(content []byte) []Occurrence {
	var occ []Occurrence
	s := newTagScanner(content, e.component)
	for {
		tag, ok := s.next()
		if !ok {
			return occ
		}
		value, found := tag.attrs[e.attribute]
		if !found {
			continue
		}
		occ = append(occ, Occurrence{
			Kind:   ComponentAttribute,
			Source: TrimSource(UnescapeNewlines(value)),
			Offset: tag.start,
		})
	}
}

// UnescapeNewlines turns literal backslash-n sequences into real newlines.
func UnescapeNewlines(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}

// NormalizeNewlines converts \r\n and \r to \n.
func NormalizeNewlines(content []byte) []byte {
	if !bytes.ContainsRune(content, '\r') {
		return content
	}
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	return bytes.ReplaceAll(content, []byte("\r"), []byte("\n"))
}

// fenceStart walks back from the first body byte to the start of the
// opening fence line so reported lines point at the ``` marker.
func fenceStart(content []byte, bodyStart int) int {
	if bodyStart > len(content) {
		bodyStart = len(content)
	}
	i := bodyStart
	// Step over the newline that ends the info line.
	if i > 0 && content[i-1] == '\n' {
		i--
	}
	for i > 0 && content[i-1] != '\n' {
		i--
	}
	return i
}

// lineOf returns the 1-based line number of offset.
func lineOf(content []byte, offset int) int {
	if offset > len(content) {
		offset = len(content)
	}
	return bytes.Count(content[:offset], []byte("\n")) + 1
}
