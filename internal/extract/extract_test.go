package extract

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestExtract - Both authoring forms
// ---------------------------------------------------------------------------

func TestExtract_FencedAndComponent(t *testing.T) {
	t.Parallel()

	content := "# Load balancing\n" +
		"\n" +
		"```mermaid\n" +
		"graph TD\n" +
		"  A-->B\n" +
		"```\n" +
		"\n" +
		`<Mermaid chart="sequenceDiagram\n  Alice->>Bob: Hello" />` + "\n"

	got := New().Extract([]byte(content))
	if len(got) != 2 {
		t.Fatalf("Extract() returned %d occurrences, want 2: %+v", len(got), got)
	}

	if got[0].Kind != FencedBlock {
		t.Errorf("got[0].Kind = %v, want %v", got[0].Kind, FencedBlock)
	}
	if got[0].Source != "graph TD\n  A-->B" {
		t.Errorf("got[0].Source = %q", got[0].Source)
	}
	if got[0].Line != 3 {
		t.Errorf("got[0].Line = %d, want 3", got[0].Line)
	}

	if got[1].Kind != ComponentAttribute {
		t.Errorf("got[1].Kind = %v, want %v", got[1].Kind, ComponentAttribute)
	}
	if got[1].Source != "sequenceDiagram\n  Alice->>Bob: Hello" {
		t.Errorf("got[1].Source = %q, want real newline substituted", got[1].Source)
	}
	if got[1].Line != 8 {
		t.Errorf("got[1].Line = %d, want 8", got[1].Line)
	}
}

// ---------------------------------------------------------------------------
// TestExtract_FencedInsideJSX - MDX wrappers around fences
// ---------------------------------------------------------------------------

func TestExtract_FencedInsideJSX(t *testing.T) {
	t.Parallel()

	fence := "```mermaid\ngraph TD\n  A-->B\n```\n"

	tests := []struct {
		name     string
		content  string
		wantLine int
	}{
		{"bare tag", "# Title\n\n<Step>\n" + fence + "</Step>\n", 4},
		{"tag with attribute", "# Title\n\n<Tab value=\"a\">\n" + fence + "</Tab>\n", 4},
		{"tag with quoted title", "<Accordion title=\"Flow\">\n" + fence + "</Accordion>\n", 2},
		{"nested and indented", "<Tabs>\n  <Tab value=\"b\">\n  " + strings.ReplaceAll(strings.TrimSuffix(fence, "\n"), "\n", "\n  ") + "\n  </Tab>\n</Tabs>\n", 3},
		{"self closing sibling", "<Callout type=\"info\" />\n" + fence, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := New().Extract([]byte(tt.content))
			if len(got) != 1 {
				t.Fatalf("Extract() returned %d occurrences, want 1: %+v", len(got), got)
			}
			if got[0].Kind != FencedBlock {
				t.Errorf("Kind = %v, want %v", got[0].Kind, FencedBlock)
			}
			if got[0].Source != "graph TD\n  A-->B" {
				t.Errorf("Source = %q", got[0].Source)
			}
			if got[0].Line != tt.wantLine {
				t.Errorf("Line = %d, want %d", got[0].Line, tt.wantLine)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestTrimSource - JavaScript trim set
// ---------------------------------------------------------------------------

func TestTrimSource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"ascii whitespace", " \t\ngraph TD\n\r\n", "graph TD"},
		{"bom and nbsp", "\ufeff\u00a0graph TD\u00a0", "graph TD"},
		{"en quad to hair space", "\u2000graph TD\u200a", "graph TD"},
		{"next line kept", "\u0085graph TD\u0085", "\u0085graph TD\u0085"},
		{"zero width space kept", "graph TD\u200b", "graph TD\u200b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := TrimSource(tt.input); got != tt.want {
				t.Errorf("TrimSource(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtract_NextLineKept(t *testing.T) {
	t.Parallel()

	content := "```mermaid\ngraph TD\n  A-->B\u0085\n```\n" + "<Mermaid chart=\"graph LR\u0085\" />"

	got := New().Extract([]byte(content))
	if len(got) != 2 {
		t.Fatalf("Extract() returned %d occurrences, want 2", len(got))
	}
	if got[0].Source != "graph TD\n  A-->B\u0085" {
		t.Errorf("fenced Source = %q, want trailing U+0085 kept", got[0].Source)
	}
	if got[1].Source != "graph LR\u0085" {
		t.Errorf("component Source = %q, want trailing U+0085 kept", got[1].Source)
	}
}

// ---------------------------------------------------------------------------
// TestExtract_ComponentForms - Attribute quoting variants
// ---------------------------------------------------------------------------

func TestExtract_ComponentForms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "double quoted",
			content: `<Mermaid chart="graph LR\nA-->B" />`,
			want:    []string{"graph LR\nA-->B"},
		},
		{
			name:    "single quoted",
			content: `<Mermaid chart='graph LR\nA-->B'/>`,
			want:    []string{"graph LR\nA-->B"},
		},
		{
			name:    "template literal",
			content: "<Mermaid chart={`\ngraph LR\n  A-->B\n`} />",
			want:    []string{"graph LR\n  A-->B"},
		},
		{
			name:    "expression string",
			content: `<Mermaid chart={"graph LR\nA-->B"} />`,
			want:    []string{"graph LR\nA-->B"},
		},
		{
			name:    "non self-closing tag",
			content: `<Mermaid chart="graph LR\nA-->B"></Mermaid>`,
			want:    []string{"graph LR\nA-->B"},
		},
		{
			name:    "other attributes first",
			content: `<Mermaid id="lb" wide chart="graph LR\nA-->B" />`,
			want:    []string{"graph LR\nA-->B"},
		},
		{
			name:    "attributes across lines",
			content: "<Mermaid\n  chart=\"graph LR\\nA-->B\"\n/>",
			want:    []string{"graph LR\nA-->B"},
		},
		{
			name:    "escaped quote inside value",
			content: `<Mermaid chart="graph LR\nA[\"x\"]-->B" />`,
			want:    []string{"graph LR\nA[\"x\"]-->B"},
		},
		{
			name:    "longer component name ignored",
			content: `<MermaidDiagram chart="graph LR" />`,
			want:    nil,
		},
		{
			name:    "missing chart attribute",
			content: `<Mermaid title="x" />`,
			want:    nil,
		},
		{
			name:    "unterminated value",
			content: `<Mermaid chart="graph LR`,
			want:    nil,
		},
		{
			name:    "empty chart",
			content: `<Mermaid chart="  " />`,
			want:    nil,
		},
		{
			name:    "two components",
			content: "<Mermaid chart=\"graph A\" />\ntext\n<Mermaid chart=\"graph B\" />",
			want:    []string{"graph A", "graph B"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := New().Extract([]byte(tt.content))
			if len(got) != len(tt.want) {
				t.Fatalf("Extract() returned %d occurrences, want %d: %+v", len(got), len(tt.want), got)
			}
			for i, w := range tt.want {
				if got[i].Source != w {
					t.Errorf("occurrence %d Source = %q, want %q", i, got[i].Source, w)
				}
				if got[i].Kind != ComponentAttribute {
					t.Errorf("occurrence %d Kind = %v, want component", i, got[i].Kind)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestExtract_Fenced - Fenced block edge cases
// ---------------------------------------------------------------------------

func TestExtract_Fenced(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "other languages ignored",
			content: "```go\nfunc main() {}\n```\n",
			want:    nil,
		},
		{
			name:    "tilde fence",
			content: "~~~mermaid\ngraph TD\n  A-->B\n~~~\n",
			want:    []string{"graph TD\n  A-->B"},
		},
		{
			name:    "info string with attributes",
			content: "```mermaid title=\"x\"\ngraph TD\n```\n",
			want:    []string{"graph TD"},
		},
		{
			name:    "crlf line endings",
			content: "```mermaid\r\ngraph TD\r\n  A-->B\r\n```\r\n",
			want:    []string{"graph TD\n  A-->B"},
		},
		{
			name:    "escaped newline kept literal in fences",
			content: "```mermaid\ngraph TD\n  A[\"a\\nb\"]\n```\n",
			want:    []string{"graph TD\n  A[\"a\\nb\"]"},
		},
		{
			name:    "empty block dropped",
			content: "```mermaid\n```\n",
			want:    nil,
		},
		{
			name:    "inside list item",
			content: "- step\n\n  ```mermaid\n  graph TD\n  ```\n",
			want:    []string{"graph TD"},
		},
		{
			name:    "two blocks in order",
			content: "```mermaid\ngraph A\n```\n\ntext\n\n```mermaid\ngraph B\n```\n",
			want:    []string{"graph A", "graph B"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := New().Extract([]byte(tt.content))
			if len(got) != len(tt.want) {
				t.Fatalf("Extract() returned %d occurrences, want %d: %+v", len(got), len(tt.want), got)
			}
			for i, w := range tt.want {
				if got[i].Source != w {
					t.Errorf("occurrence %d Source = %q, want %q", i, got[i].Source, w)
				}
				if got[i].Kind != FencedBlock {
					t.Errorf("occurrence %d Kind = %v, want fenced", i, got[i].Kind)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestExtract_Options - Custom language and component
// ---------------------------------------------------------------------------

func TestExtract_Options(t *testing.T) {
	t.Parallel()

	content := "```d2\nx -> y\n```\n\n<Diagram src=\"a -> b\" />\n\n```mermaid\ngraph TD\n```\n"
	e := New(WithLanguage("d2"), WithComponent("Diagram", "src"))

	got := e.Extract([]byte(content))
	if len(got) != 2 {
		t.Fatalf("Extract() returned %d occurrences, want 2: %+v", len(got), got)
	}
	if got[0].Source != "x -> y" || got[1].Source != "a -> b" {
		t.Errorf("Extract() sources = %q, %q", got[0].Source, got[1].Source)
	}
	if e.Language() != "d2" {
		t.Errorf("Language() = %q, want d2", e.Language())
	}
}

// ---------------------------------------------------------------------------
// TestKindString - Kind names
// ---------------------------------------------------------------------------

func TestKindString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind Kind
		want string
	}{
		{FencedBlock, "fenced"},
		{ComponentAttribute, "component"},
		{Kind(0), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestUnescapeNewlines(t *testing.T) {
	t.Parallel()

	got := UnescapeNewlines(`a\nb\nc`)
	if got != "a\nb\nc" {
		t.Errorf("UnescapeNewlines() = %q", got)
	}
	if strings.Contains(UnescapeNewlines("plain"), "\n") {
		t.Error("UnescapeNewlines() added newline to plain text")
	}
}
