package pipeline

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/alnah/go-diagramcache/internal/extract"
)

// DefaultDiagramLanguage is the fenced code language rendered as a diagram.
const DefaultDiagramLanguage = "mermaid"

// DiagramResolver returns the HTML that replaces one diagram source.
// Implementations must return safe, complete markup for every input.
type DiagramResolver interface {
	DiagramHTML(source string) string
}

// DiagramResolverFunc adapts a function to DiagramResolver.
type DiagramResolverFunc func(source string) string

// DiagramHTML calls f(source).
func (f DiagramResolverFunc) DiagramHTML(source string) string { return f(source) }

// KindDiagram is the AST node kind of a resolved diagram block.
var KindDiagram = ast.NewNodeKind("Diagram")

// Diagram is a block node holding one diagram's trimmed source.
type Diagram struct {
	ast.BaseBlock
	Source string
}

// Kind implements ast.Node.
func (n *Diagram) Kind() ast.NodeKind { return KindDiagram }

// Dump implements ast.Node.
func (n *Diagram) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Source": n.Source}, nil)
}

// diagramTransformer swaps diagram fenced code blocks for Diagram nodes.
type diagramTransformer struct {
	language string
}

func (t *diagramTransformer) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()

	var blocks []*ast.FencedCodeBlock
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if fcb, ok := n.(*ast.FencedCodeBlock); ok {
			if string(fcb.Language(source)) == t.language {
				blocks = append(blocks, fcb)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	for _, fcb := range blocks {
		var buf bytes.Buffer
		lines := fcb.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(source))
		}
		node := &Diagram{Source: extract.TrimSource(buf.String())}
		parent := fcb.Parent()
		parent.ReplaceChild(parent, fcb, node)
	}
}

// diagramRenderer writes resolver output for Diagram nodes.
type diagramRenderer struct {
	resolver DiagramResolver
}

func (r *diagramRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindDiagram, r.render)
}

func (r *diagramRenderer) render(w util.BufWriter, _ []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	d := n.(*Diagram)
	_, _ = w.WriteString(r.resolver.DiagramHTML(d.Source))
	_ = w.WriteByte('\n')
	return ast.WalkSkipChildren, nil
}

// diagramExtension wires the transformer and renderer into goldmark.
type diagramExtension struct {
	resolver DiagramResolver
	language string
}

// NewDiagramExtension returns a goldmark extension replacing fenced code
// blocks tagged language with resolver output.
func NewDiagramExtension(resolver DiagramResolver, language string) goldmark.Extender {
	if language == "" {
		language = DefaultDiagramLanguage
	}
	return &diagramExtension{resolver: resolver, language: language}
}

func (e *diagramExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(&diagramTransformer{language: e.language}, 100),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&diagramRenderer{resolver: e.resolver}, 100),
	))
}
