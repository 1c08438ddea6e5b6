package diagramcache

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/alnah/go-diagramcache/internal/extract"
)

// Variant names one of the two rendered artifacts of a diagram.
type Variant string

// Artifact variants. Every cached diagram has exactly one of each.
const (
	VariantLight Variant = "light"
	VariantDark  Variant = "dark"
)

// Variants lists the variants in manifest order.
var Variants = []Variant{VariantLight, VariantDark}

// Theme pairs an artifact variant with the renderer theme that produces it.
type Theme struct {
	Variant Variant
	Name    string // renderer theme identifier, e.g. "default", "dark", "forest"
}

// DefaultThemes returns the Mermaid themes used for the light and dark artifacts.
func DefaultThemes() []Theme {
	return []Theme{
		{Variant: VariantLight, Name: "default"},
		{Variant: VariantDark, Name: "dark"},
	}
}

// validateThemes checks that exactly one named theme exists per variant.
func validateThemes(themes []Theme) error {
	if len(themes) != len(Variants) {
		return fmt.Errorf("%w: want %d themes, got %d", ErrInvalidTheme, len(Variants), len(themes))
	}
	seen := make(map[Variant]bool, len(themes))
	for _, th := range themes {
		if th.Variant != VariantLight && th.Variant != VariantDark {
			return fmt.Errorf("%w: unknown variant %q", ErrInvalidTheme, th.Variant)
		}
		if th.Name == "" {
			return fmt.Errorf("%w: empty theme name for %s", ErrInvalidTheme, th.Variant)
		}
		if seen[th.Variant] {
			return fmt.Errorf("%w: duplicate variant %q", ErrInvalidTheme, th.Variant)
		}
		seen[th.Variant] = true
	}
	return nil
}

// Entry is one manifest record: the public paths of both artifacts.
type Entry struct {
	Light string `json:"light"`
	Dark  string `json:"dark"`
}

// Path returns the public path recorded for variant.
func (e Entry) Path(v Variant) string {
	if v == VariantDark {
		return e.Dark
	}
	return e.Light
}

// Diagram is one diagram occurrence found in the content tree.
type Diagram struct {
	Key    string
	Source string
	Path   string // content file the occurrence was read from
	Line   int
	Kind   extract.Kind
}

// Failure records one diagram that could not be rendered.
type Failure struct {
	Key  string
	Path string
	Line int
	Err  error
}

// Summary reports the outcome of a build pass.
type Summary struct {
	Files    int // content files scanned
	Diagrams int // occurrences found, before deduplication
	Unique   int // distinct keys
	Rendered int
	Cached   int
	Failed   int
	Pending  int // dry run: diagrams that would be rendered
	Pruned   int
	Failures []Failure
	Duration time.Duration
}

// add folds a per-file summary into s.
func (s *Summary) add(o *Summary) {
	s.Files += o.Files
	s.Diagrams += o.Diagrams
	s.Unique += o.Unique
	s.Rendered += o.Rendered
	s.Cached += o.Cached
	s.Failed += o.Failed
	s.Pending += o.Pending
	s.Pruned += o.Pruned
	s.Failures = append(s.Failures, o.Failures...)
}

// Option configures a Builder.
type Option func(*Builder)

// builderConfig holds internal configuration for Builder.
type builderConfig struct {
	contentDir    string
	extensions    []string
	excludeDirs   []string
	themes        []Theme
	svgClass      string
	renderTimeout time.Duration
}

// Defaults for builder configuration.
const (
	DefaultSVGClass      = "mermaid-svg"
	defaultRenderTimeout = 60 * time.Second
)

// DefaultExtensions lists the content file extensions scanned by default.
var DefaultExtensions = []string{".md", ".mdx"}

// DefaultExcludeDirs lists directory glob patterns skipped during discovery.
var DefaultExcludeDirs = []string{"node_modules", ".git", ".next"}

// WithExtensions sets the content file extensions to scan.
func WithExtensions(exts ...string) Option {
	return func(b *Builder) {
		if len(exts) > 0 {
			b.cfg.extensions = exts
		}
	}
}

// WithExcludeDirs sets glob patterns matched against directory base names.
func WithExcludeDirs(patterns ...string) Option {
	return func(b *Builder) {
		b.cfg.excludeDirs = patterns
	}
}

// WithThemes overrides the renderer themes used for each variant.
func WithThemes(themes ...Theme) Option {
	return func(b *Builder) {
		b.cfg.themes = themes
	}
}

// WithSVGClass sets the class attribute injected on each artifact's root element.
func WithSVGClass(class string) Option {
	return func(b *Builder) {
		if class != "" {
			b.cfg.svgClass = class
		}
	}
}

// WithRenderTimeout bounds a single diagram render (both variants).
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithRenderTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("diagramcache: WithRenderTimeout duration must be positive")
	}
	return func(b *Builder) {
		b.cfg.renderTimeout = d
	}
}

// WithLogger sets the logger used for progress and diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithExtractor replaces the default Mermaid extractor.
func WithExtractor(e *extract.Extractor) Option {
	return func(b *Builder) {
		if e != nil {
			b.extractor = e
		}
	}
}
