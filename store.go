package diagramcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/alnah/go-diagramcache/internal/fileutil"
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: artifacts are served publicly
)

// Store defaults.
const (
	DefaultManifestName = "manifest.json"
	DefaultPublicPrefix = "/mermaid-cache"
	artifactExtension   = "svg"
)

// Store owns the on-disk cache directory: one SVG per key and variant plus a
// JSON manifest mapping keys to public artifact paths.
//
// A Store is safe for concurrent use. It assumes a single writing process.
type Store struct {
	dir          string
	manifestName string
	publicPrefix string
	logger       *slog.Logger

	mu      sync.RWMutex
	entries map[string]Entry

	// saveMu orders manifest writes so an older snapshot never lands last.
	saveMu sync.Mutex
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithPublicPrefix sets the URL prefix recorded in manifest entries.
func WithPublicPrefix(prefix string) StoreOption {
	return func(s *Store) {
		if prefix != "" {
			s.publicPrefix = prefix
		}
	}
}

// WithManifestName sets the manifest file name inside the cache directory.
func WithManifestName(name string) StoreOption {
	return func(s *Store) {
		if name != "" {
			s.manifestName = name
		}
	}
}

// WithStoreLogger sets the logger used to report manifest recovery.
func WithStoreLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// OpenStore creates dir if needed and returns an empty Store rooted there.
// Call Load to read an existing manifest.
func OpenStore(dir string, opts ...StoreOption) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty path", ErrCacheDir)
	}
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheDir, err)
	}

	s := &Store{
		dir:          dir,
		manifestName: DefaultManifestName,
		publicPrefix: DefaultPublicPrefix,
		logger:       slog.Default(),
		entries:      make(map[string]Entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the cache directory.
func (s *Store) Dir() string { return s.dir }

// ManifestPath returns the manifest file location.
func (s *Store) ManifestPath() string {
	return filepath.Join(s.dir, s.manifestName)
}

// Load replaces the in-memory manifest with the file on disk. A missing or
// corrupt manifest yields an empty cache; only an unreadable existing file is
// reported as an error.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.ManifestPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.reset(nil)
			return nil
		}
		return fmt.Errorf("%w: %v", ErrManifestRead, err)
	}

	var entries map[string]Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warn("ignoring corrupt manifest", "path", s.ManifestPath(), "error", err)
		s.reset(nil)
		return nil
	}

	// Drop entries that could never be looked up.
	for key := range entries {
		if !IsKey(key) {
			delete(entries, key)
		}
	}
	s.reset(entries)
	return nil
}

func (s *Store) reset(entries map[string]Entry) {
	if entries == nil {
		entries = make(map[string]Entry)
	}
	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
}

// Has reports whether key is in the manifest and both artifact files exist.
// A manifest entry whose files were removed counts as a miss.
func (s *Store) Has(key string) bool {
	s.mu.RLock()
	_, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	for _, v := range Variants {
		if !fileutil.FileExists(s.ArtifactPath(key, v)) {
			return false
		}
	}
	return true
}

// Get returns the manifest entry for key.
func (s *Store) Get(key string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return e, ok
}

// Put records the manifest entry for key. Artifact files must already exist.
func (s *Store) Put(key string, e Entry) {
	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
}

// EntryFor builds the manifest entry pointing at key's artifacts.
func (s *Store) EntryFor(key string) Entry {
	return Entry{
		Light: s.PublicPath(key, VariantLight),
		Dark:  s.PublicPath(key, VariantDark),
	}
}

// Delete removes key from the manifest and deletes its artifacts.
// Missing files are not an error.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()

	for _, v := range Variants {
		_ = os.Remove(s.ArtifactPath(key, v))
	}
}

// Keys returns the manifest keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Len returns the number of manifest entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// ArtifactPath returns the on-disk location of key's variant.
func (s *Store) ArtifactPath(key string, v Variant) string {
	return filepath.Join(s.dir, artifactName(key, v))
}

// PublicPath returns the URL path recorded in the manifest for key's variant.
func (s *Store) PublicPath(key string, v Variant) string {
	return path.Join(s.publicPrefix, artifactName(key, v))
}

// WriteArtifact stores the bytes of one rendered variant.
func (s *Store) WriteArtifact(key string, v Variant, data []byte) error {
	if err := fileutil.WriteFileAtomic(s.ArtifactPath(key, v), data, filePermissions); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrArtifactWrite, artifactName(key, v), err)
	}
	return nil
}

// ReadArtifact returns the bytes of one rendered variant.
func (s *Store) ReadArtifact(key string, v Variant) ([]byte, error) {
	return os.ReadFile(s.ArtifactPath(key, v)) // #nosec G304 -- path built from validated key
}

// Save persists the manifest atomically with stable two-space indentation.
// encoding/json sorts map keys, so unchanged manifests are byte-identical.
func (s *Store) Save() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.RLock()
	data, err := json.MarshalIndent(s.entries, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrManifestWrite, err)
	}
	data = append(data, '\n')

	if err := fileutil.WriteFileAtomic(s.ManifestPath(), data, filePermissions); err != nil {
		return fmt.Errorf("%w: %v", ErrManifestWrite, err)
	}
	return nil
}

// ArtifactKeys returns the keys of artifact files present in the cache
// directory, whether or not the manifest references them.
func (s *Store) ArtifactKeys() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheDir, err)
	}
	seen := make(map[string]bool)
	var keys []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		key, ok := parseArtifactName(e.Name())
		if ok && !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// parseArtifactName extracts the key from "{key}-{variant}.svg".
func parseArtifactName(name string) (string, bool) {
	for _, v := range Variants {
		suffix := "-" + string(v) + "." + artifactExtension
		if key, ok := strings.CutSuffix(name, suffix); ok && IsKey(key) {
			return key, true
		}
	}
	return "", false
}

func artifactName(key string, v Variant) string {
	return key + "-" + string(v) + "." + artifactExtension
}
