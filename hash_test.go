package diagramcache

import (
	"fmt"
	"testing"
)

// ---------------------------------------------------------------------------
// TestHashDiagram - Known keys shared with the page renderer
// ---------------------------------------------------------------------------

func TestHashDiagram(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"empty", "", "000000000000"},
		{"whitespace only", " \n\t ", "000000000000"},
		{"single char", "a", "000000000061"},
		{"short", "abc", "000000017862"},
		{"flowchart", "graph TD\n  A-->B", "00001f5eb1a3"},
		{"surrounding whitespace trimmed", "  graph TD\n  A-->B\n\n", "00001f5eb1a3"},
		{"sequence", "sequenceDiagram\n  Alice->>Bob: Hello", "00001c6ba09c"},
		{"multi line", "flowchart LR\n  Client --> LB[Load Balancer]\n  LB --> S1[Server 1]\n  LB --> S2[Server 2]", "000076447035"},
		{"non ascii and astral", "graph TD\n  A[Café] --> B[😀]", "000036849d39"},
		{"hello world", "hello world", "00006aefe2c4"},
		{"bom trimmed", "\ufeffabc", "000000017862"},
		{"next line kept", "graph TD\n  A-->B\u0085", "000033887dc8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := HashDiagram(tt.source)
			if got != tt.want {
				t.Errorf("HashDiagram(%q) = %q, want %q", tt.source, got, tt.want)
			}
			if !IsKey(got) {
				t.Errorf("HashDiagram(%q) = %q is not a valid key", tt.source, got)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestHashDiagram_NoCollisions - Distinct corpus yields distinct keys
// ---------------------------------------------------------------------------

func TestHashDiagram_NoCollisions(t *testing.T) {
	t.Parallel()

	corpus := []string{
		"graph TD\n  A-->B",
		"graph TD\n  B-->A",
		"graph LR\n  A-->B",
		"sequenceDiagram\n  Alice->>Bob: Hello",
		"sequenceDiagram\n  Bob->>Alice: Hello",
		"classDiagram\n  Animal <|-- Duck",
		"stateDiagram-v2\n  [*] --> Still",
		"erDiagram\n  CUSTOMER ||--o{ ORDER : places",
		"flowchart LR\n  Client --> LB[Load Balancer]",
		"flowchart LR\n  Client --> CDN --> Origin",
	}
	for i := 0; i < 200; i++ {
		corpus = append(corpus, fmt.Sprintf("graph TD\n  N%d --> N%d\n  N%d --> DB[(Shard %d)]", i, i+1, i+1, i%16))
	}

	seen := make(map[string]string, len(corpus))
	for _, src := range corpus {
		key := HashDiagram(src)
		if prev, ok := seen[key]; ok {
			t.Fatalf("HashDiagram collision %q: %q and %q", key, prev, src)
		}
		seen[key] = src
	}
}

func TestHashDiagram_Deterministic(t *testing.T) {
	t.Parallel()

	src := "graph TD\n  A-->B"
	if HashDiagram(src) != HashDiagram("\n"+src+"   ") {
		t.Error("HashDiagram() differs for sources equal after trimming")
	}
}

// ---------------------------------------------------------------------------
// TestIsKey - Key shape validation
// ---------------------------------------------------------------------------

func TestIsKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"00001f5eb1a3", true},
		{"000000000000", true},
		{"00001F5EB1A3", false},
		{"00001f5eb1a", false},
		{"00001f5eb1a3a", false},
		{"00001f5eb1g3", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsKey(tt.in); got != tt.want {
			t.Errorf("IsKey(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
