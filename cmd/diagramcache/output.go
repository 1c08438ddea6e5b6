package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	diagramcache "github.com/alnah/go-diagramcache"
)

// outputOptions controls how summaries are printed.
type outputOptions struct {
	quiet  bool
	json   bool
	dryRun bool
	prune  bool // prune command: only the pruned count is meaningful
}

// summaryJSON is the --json shape of a Summary.
type summaryJSON struct {
	Files      int           `json:"files"`
	Diagrams   int           `json:"diagrams"`
	Unique     int           `json:"unique"`
	Rendered   int           `json:"rendered"`
	Cached     int           `json:"cached"`
	Failed     int           `json:"failed"`
	Pending    int           `json:"pending,omitempty"`
	Pruned     int           `json:"pruned"`
	DryRun     bool          `json:"dryRun,omitempty"`
	DurationMS int64         `json:"durationMs"`
	Failures   []failureJSON `json:"failures,omitempty"`
}

type failureJSON struct {
	Key   string `json:"key"`
	Path  string `json:"path"`
	Line  int    `json:"line"`
	Error string `json:"error"`
}

func toSummaryJSON(s *diagramcache.Summary, dryRun bool) summaryJSON {
	out := summaryJSON{
		Files:      s.Files,
		Diagrams:   s.Diagrams,
		Unique:     s.Unique,
		Rendered:   s.Rendered,
		Cached:     s.Cached,
		Failed:     s.Failed,
		Pending:    s.Pending,
		Pruned:     s.Pruned,
		DryRun:     dryRun,
		DurationMS: s.Duration.Milliseconds(),
	}
	for _, f := range s.Failures {
		out.Failures = append(out.Failures, failureJSON{
			Key:   f.Key,
			Path:  f.Path,
			Line:  f.Line,
			Error: f.Err.Error(),
		})
	}
	return out
}

// printSummary writes a pass summary. Failures always go to stderr in text
// mode; the totals line is suppressed by --quiet.
func printSummary(env *Environment, s *diagramcache.Summary, o outputOptions) error {
	if o.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(toSummaryJSON(s, o.dryRun))
	}

	printFailures(env.Stderr, s.Failures)
	if o.quiet {
		return nil
	}

	w := env.Stdout
	switch {
	case o.prune && o.dryRun:
		fmt.Fprintf(w, "Would prune %d entries (%d diagrams in %d files still referenced)\n", s.Pruned, s.Unique, s.Files)
	case o.prune:
		fmt.Fprintf(w, "Pruned %d entries (%d diagrams in %d files still referenced)\n", s.Pruned, s.Unique, s.Files)
	case o.dryRun:
		fmt.Fprintf(w, "Would render %d, cached %d (%d unique of %d diagrams in %d files)\n",
			s.Pending, s.Cached, s.Unique, s.Diagrams, s.Files)
		if s.Pruned > 0 {
			fmt.Fprintf(w, "Would prune %d entries\n", s.Pruned)
		}
	default:
		fmt.Fprintf(w, "Rendered %d, cached %d, failed %d (%d unique of %d diagrams in %d files, %s)\n",
			s.Rendered, s.Cached, s.Failed, s.Unique, s.Diagrams, s.Files, s.Duration.Round(time.Millisecond))
		if s.Pruned > 0 {
			fmt.Fprintf(w, "Pruned %d entries\n", s.Pruned)
		}
	}
	return nil
}

// printFailures writes one line per failed diagram.
func printFailures(w io.Writer, failures []diagramcache.Failure) {
	for _, f := range failures {
		fmt.Fprintf(w, "FAILED %s:%d (%s): %v\n", f.Path, f.Line, f.Key, f.Err)
	}
}

// syncWriter serializes writes from concurrent watch callbacks.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
