package fileutil_test

// Notes:
// - WriteFileAtomic: the Sync and Chmod error branches are not tested because
//   triggering those failures is platform-specific.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-diagramcache/internal/fileutil"
)

// ---------------------------------------------------------------------------
// TestValidateExtension - Extension validation
// ---------------------------------------------------------------------------

func TestValidateExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		extension string
		wantErr   error
	}{
		{
			name:      "valid extension mmd",
			extension: "mmd",
			wantErr:   nil,
		},
		{
			name:      "valid extension svg",
			extension: "svg",
			wantErr:   nil,
		},
		{
			name:      "empty extension",
			extension: "",
			wantErr:   fileutil.ErrExtensionEmpty,
		},
		{
			name:      "forward slash path traversal",
			extension: "../etc/passwd",
			wantErr:   fileutil.ErrExtensionPathTraversal,
		},
		{
			name:      "backslash path traversal",
			extension: "..\\windows\\system32",
			wantErr:   fileutil.ErrExtensionPathTraversal,
		},
		{
			name:      "null byte injection",
			extension: "svg\x00exe",
			wantErr:   fileutil.ErrExtensionPathTraversal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := fileutil.ValidateExtension(tt.extension)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateExtension(%q) = %v, want %v", tt.extension, err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestWriteTempFile - Temporary file creation
// ---------------------------------------------------------------------------

func TestWriteTempFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		content   string
		extension string
	}{
		{
			name:      "mermaid source",
			content:   "graph TD\n  A-->B",
			extension: "mmd",
		},
		{
			name:      "empty content",
			content:   "",
			extension: "mmd",
		},
		{
			name:      "unicode content",
			content:   "graph TD\n  A[Café] --> B[naïve]",
			extension: "mmd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			path, cleanup, err := fileutil.WriteTempFile(dir, "render", tt.content, tt.extension)
			if err != nil {
				t.Fatalf("WriteTempFile() unexpected error: %v", err)
			}
			defer cleanup()

			if filepath.Dir(path) != dir {
				t.Errorf("WriteTempFile() dir = %q, want %q", filepath.Dir(path), dir)
			}
			if !strings.HasSuffix(path, "."+tt.extension) {
				t.Errorf("WriteTempFile() path %q missing extension %q", path, tt.extension)
			}
			if !strings.HasPrefix(filepath.Base(path), "render-") {
				t.Errorf("WriteTempFile() path %q missing prefix", path)
			}

			got, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("reading temp file: %v", err)
			}
			if string(got) != tt.content {
				t.Errorf("content = %q, want %q", got, tt.content)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestWriteTempFile_Unique - Names never collide within one process
// ---------------------------------------------------------------------------

func TestWriteTempFile_Unique(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		path, cleanup, err := fileutil.WriteTempFile(dir, "render", "x", "mmd")
		if err != nil {
			t.Fatalf("WriteTempFile() unexpected error: %v", err)
		}
		defer cleanup()
		if seen[path] {
			t.Fatalf("WriteTempFile() returned duplicate path %q", path)
		}
		seen[path] = true
	}
}

// ---------------------------------------------------------------------------
// TestWriteTempFile_Cleanup - Cleanup function removes file
// ---------------------------------------------------------------------------

func TestWriteTempFile_Cleanup(t *testing.T) {
	t.Parallel()

	path, cleanup, err := fileutil.WriteTempFile(t.TempDir(), "render", "content", "mmd")
	if err != nil {
		t.Fatalf("WriteTempFile() unexpected error: %v", err)
	}

	cleanup()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file %q still exists after cleanup", path)
	}

	// Calling cleanup twice must not panic.
	cleanup()
}

// ---------------------------------------------------------------------------
// TestWriteTempFile_InvalidExtension - Invalid extension errors
// ---------------------------------------------------------------------------

func TestWriteTempFile_InvalidExtension(t *testing.T) {
	t.Parallel()

	_, cleanup, err := fileutil.WriteTempFile(t.TempDir(), "render", "x", "../svg")
	if !errors.Is(err, fileutil.ErrExtensionPathTraversal) {
		t.Errorf("WriteTempFile() error = %v, want %v", err, fileutil.ErrExtensionPathTraversal)
	}
	if cleanup != nil {
		t.Error("WriteTempFile() returned non-nil cleanup on error")
	}
}

// ---------------------------------------------------------------------------
// TestWriteTempFile_MissingDir - CreateTemp failure handling
// ---------------------------------------------------------------------------

func TestWriteTempFile_MissingDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "does", "not", "exist")
	_, _, err := fileutil.WriteTempFile(dir, "render", "x", "mmd")
	if err == nil {
		t.Fatal("WriteTempFile() expected error for missing dir")
	}
	if !strings.Contains(err.Error(), "creating temp file") {
		t.Errorf("WriteTempFile() error = %v, want creating temp file", err)
	}
}

// ---------------------------------------------------------------------------
// TestTempPath - Reserved path does not exist on disk
// ---------------------------------------------------------------------------

func TestTempPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path, cleanup, err := fileutil.TempPath(dir, "out", "svg")
	if err != nil {
		t.Fatalf("TempPath() unexpected error: %v", err)
	}
	defer cleanup()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("TempPath() left file %q on disk", path)
	}
	if !strings.HasSuffix(path, ".svg") {
		t.Errorf("TempPath() = %q, want .svg suffix", path)
	}

	if err := os.WriteFile(path, []byte("<svg/>"), 0o600); err != nil {
		t.Fatalf("writing reserved path: %v", err)
	}
	cleanup()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("cleanup did not remove %q", path)
	}
}

// ---------------------------------------------------------------------------
// TestWriteFileAtomic - Atomic replace
// ---------------------------------------------------------------------------

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")

	if err := fileutil.WriteFileAtomic(path, []byte("first"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic() unexpected error: %v", err)
	}
	if err := fileutil.WriteFileAtomic(path, []byte("second"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic() unexpected error: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading file: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("content = %q, want %q", got, "second")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading dir: %v", err)
	}
	if len(entries) != 1 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("dir contains %v, want only manifest.json", names)
	}
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing", "manifest.json")
	if err := fileutil.WriteFileAtomic(path, []byte("x"), 0o644); err == nil {
		t.Error("WriteFileAtomic() expected error for missing directory")
	}
}

// ---------------------------------------------------------------------------
// TestFileExists - File existence check
// ---------------------------------------------------------------------------

func TestFileExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "a.svg")
	if err := os.WriteFile(file, []byte("<svg/>"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"existing file", file, true},
		{"directory", dir, false},
		{"missing file", filepath.Join(dir, "missing.svg"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := fileutil.FileExists(tt.path); got != tt.want {
				t.Errorf("FileExists(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestHasExtension - Content extension filter
// ---------------------------------------------------------------------------

func TestHasExtension(t *testing.T) {
	t.Parallel()

	exts := []string{".md", ".mdx"}
	tests := []struct {
		path string
		want bool
	}{
		{"docs/intro.md", true},
		{"docs/intro.MDX", true},
		{"docs/intro.markdown", false},
		{"docs/README", false},
		{"docs/.mdx", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			if got := fileutil.HasExtension(tt.path, exts); got != tt.want {
				t.Errorf("HasExtension(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestIsFilePath - File path detection
// ---------------------------------------------------------------------------

func TestIsFilePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"diagramcache", false},
		{"my-config", false},
		{"./diagramcache.yaml", true},
		{"../shared/config.toml", true},
		{"/etc/diagramcache.yaml", true},
		{"C:\\config.yaml", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			if got := fileutil.IsFilePath(tt.input); got != tt.want {
				t.Errorf("IsFilePath(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
