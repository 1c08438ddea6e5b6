package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	diagramcache "github.com/alnah/go-diagramcache"
	"github.com/alnah/go-diagramcache/internal/config"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Fake renderer and environment
// ---------------------------------------------------------------------------

// svgRenderer renders a minimal SVG naming the theme. Sources containing
// "broken" fail like a Mermaid syntax error.
type svgRenderer struct {
	mu    sync.Mutex
	calls int
}

func (r *svgRenderer) Render(_ context.Context, source string, theme diagramcache.Theme) ([]byte, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if strings.Contains(source, "broken") {
		return nil, errors.New("parse error on line 1")
	}
	return []byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"><text>` + theme.Name + `</text></svg>`), nil
}

func (r *svgRenderer) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// testEnv returns an Environment with captured output and a fake renderer.
func testEnv(r diagramcache.Renderer) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	env := &Environment{
		Now:    func() time.Time { return time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC) },
		Stdout: &stdout,
		Stderr: &stderr,
		NewRenderer: func(config.RendererConfig) (diagramcache.Renderer, func(), error) {
			return r, func() {}, nil
		},
	}
	return env, &stdout, &stderr
}

// failingFactory returns a RendererFactory that always fails with err.
func failingFactory(err error) RendererFactory {
	return func(config.RendererConfig) (diagramcache.Renderer, func(), error) {
		return nil, nil, err
	}
}

// writeFiles creates files (relative path -> content) under dir.
func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// fence wraps source in a mermaid code fence.
func fence(source string) string {
	return "```mermaid\n" + source + "\n```\n"
}

// workspace creates a content dir with files and returns (contentDir, cacheDir).
func workspace(t *testing.T, files map[string]string) (string, string) {
	t.Helper()
	root := t.TempDir()
	content := filepath.Join(root, "content")
	if err := os.MkdirAll(content, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFiles(t, content, files)
	return content, filepath.Join(root, "public", "mermaid-cache")
}
