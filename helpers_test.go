package diagramcache

// Notes:
// - Shared test doubles for renderer and builder tests
// - fakeRenderer produces deterministic SVG that embeds the theme and source,
//   so tests can tell variants apart after post-processing
// - writeContent lays out a content tree from a path->content map

import (
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// ---------------------------------------------------------------------------
// Test Doubles
// ---------------------------------------------------------------------------

// fakeRenderer records calls and returns canned SVG.
type fakeRenderer struct {
	mu     sync.Mutex
	calls  map[string]int // source -> render calls (one per theme)
	fail   map[string]bool
	output string // if set, returned verbatim instead of generated SVG
	block  bool   // wait for ctx cancellation before returning
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{calls: make(map[string]int), fail: make(map[string]bool)}
}

func (f *fakeRenderer) Render(ctx context.Context, source string, theme Theme) ([]byte, error) {
	f.mu.Lock()
	f.calls[source]++
	fail := f.fail[source]
	block := f.block
	output := f.output
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, fmt.Errorf("%w: %w", ErrRenderFailed, ctx.Err())
	}
	if fail {
		return nil, fmt.Errorf("%w: Parse error on line 1", ErrRenderFailed)
	}
	if output != "" {
		return []byte(output), nil
	}
	svg := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="120" height="40" data-theme="%s"><text>%s</text></svg>`,
		theme.Name, html.EscapeString(source))
	return []byte(svg), nil
}

func (f *fakeRenderer) failOn(source string) {
	f.mu.Lock()
	f.fail[source] = true
	f.mu.Unlock()
}

func (f *fakeRenderer) succeedOn(source string) {
	f.mu.Lock()
	delete(f.fail, source)
	f.mu.Unlock()
}

// renders returns how many diagrams were rendered (calls divided by theme count).
func (f *fakeRenderer) renders() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total / len(Variants)
}

func (f *fakeRenderer) callsFor(source string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[source]
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeContent creates files under root from a relative path -> content map.
func writeContent(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

// fenced wraps source in a mermaid code fence.
func fenced(source string) string {
	return "```mermaid\n" + source + "\n```\n"
}

// newTestStore opens a store in a fresh temp directory.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "cache"), WithStoreLogger(discardLogger()))
	if err != nil {
		t.Fatalf("OpenStore() unexpected error: %v", err)
	}
	return s
}

// newTestBuilder wires a builder over a temp content dir, store and fake renderer.
func newTestBuilder(t *testing.T, files map[string]string, opts ...Option) (*Builder, *Store, *fakeRenderer, string) {
	t.Helper()
	content := filepath.Join(t.TempDir(), "content")
	if err := os.MkdirAll(content, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeContent(t, content, files)

	store := newTestStore(t)
	r := newFakeRenderer()
	opts = append([]Option{WithLogger(discardLogger())}, opts...)
	b, err := NewBuilder(content, store, r, opts...)
	if err != nil {
		t.Fatalf("NewBuilder() unexpected error: %v", err)
	}
	return b, store, r, content
}

// containsAll reports whether s contains every substring.
func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
