package diagramcache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/alnah/go-diagramcache/internal/fileutil"
	"github.com/alnah/go-diagramcache/internal/process"
)

// Renderer turns one diagram source into SVG bytes for a theme.
// Implementations report failures as errors wrapping ErrRenderFailed.
type Renderer interface {
	Render(ctx context.Context, source string, theme Theme) ([]byte, error)
}

// CommandRunner abstracts command execution to enable testing without real subprocesses.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)
}

// ExecRunner implements CommandRunner using os/exec. The child runs in its
// own process group which is killed when ctx is done, so a renderer that
// spawns a browser does not leave it behind.
type ExecRunner struct{}

// Run starts name with args and waits for it to exit.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.Command(name, args...) // #nosec G204 -- renderer binary comes from config
	process.Detach(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return "", "", fmt.Errorf("starting command: %w", err)
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			process.KillProcessGroup(cmd.Process.Pid)
		case <-done:
		}
	}()

	err := cmd.Wait()
	close(done)
	if ctxErr := ctx.Err(); ctxErr != nil && err != nil {
		err = fmt.Errorf("%w: %v", ctxErr, err)
	}
	return stdout.String(), stderr.String(), err
}

// Compile-time interface implementation checks.
var (
	_ CommandRunner = (*ExecRunner)(nil)
	_ Renderer      = (*MermaidCLI)(nil)
)

// DefaultMermaidCLI is the mermaid-cli binary name looked up on PATH.
const DefaultMermaidCLI = "mmdc"

// MermaidCLI renders diagrams by invoking mermaid-cli (mmdc).
type MermaidCLI struct {
	Bin     string
	TempDir string // where input/output files are staged; empty = os.TempDir
	Runner  CommandRunner
	Args    []string // extra arguments, e.g. a puppeteer config
}

// NewMermaidCLI resolves bin (a path or a name on PATH) and returns a
// renderer backed by it. A missing binary is reported as ErrRendererNotFound
// so callers can abort before scanning content.
func NewMermaidCLI(bin string) (*MermaidCLI, error) {
	if bin == "" {
		bin = DefaultMermaidCLI
	}
	resolved, err := resolveBinary(bin)
	if err != nil {
		return nil, err
	}
	return &MermaidCLI{Bin: resolved, Runner: &ExecRunner{}}, nil
}

// resolveBinary finds an executable either at an explicit path or on PATH.
func resolveBinary(bin string) (string, error) {
	if fileutil.IsFilePath(bin) {
		info, err := os.Stat(bin)
		if err != nil || info.IsDir() {
			return "", fmt.Errorf("%w: %s", ErrRendererNotFound, bin)
		}
		return bin, nil
	}
	resolved, err := exec.LookPath(bin)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrRendererNotFound, bin)
	}
	return resolved, nil
}

// Render writes source to a uniquely named temp file, runs mmdc with the
// theme and a transparent background, and returns the produced SVG. Temp
// files are removed on every path.
func (m *MermaidCLI) Render(ctx context.Context, source string, theme Theme) ([]byte, error) {
	if strings.TrimSpace(source) == "" {
		return nil, ErrEmptySource
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	input, cleanupInput, err := fileutil.WriteTempFile(m.TempDir, "diagram-"+string(theme.Variant), source, "mmd")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	defer cleanupInput()

	output, cleanupOutput, err := fileutil.TempPath(m.TempDir, "diagram-"+string(theme.Variant), artifactExtension)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	defer cleanupOutput()

	args := []string{
		"-i", input,
		"-o", output,
		"-t", theme.Name,
		"-b", "transparent",
		"--quiet",
	}
	args = append(args, m.Args...)

	_, stderr, err := m.Runner.Run(ctx, m.Bin, args...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %s theme: %w", ErrRenderFailed, theme.Name, ctxErr)
		}
		return nil, fmt.Errorf("%w: %s theme: %s", ErrRenderFailed, theme.Name, diagnostic(stderr, err))
	}

	svg, err := os.ReadFile(output) // #nosec G304 -- temp path created above
	if err != nil {
		return nil, fmt.Errorf("%w: reading output: %v", ErrRenderFailed, err)
	}
	return svg, nil
}

// diagnostic picks the most useful text to show for a failed run.
func diagnostic(stderr string, err error) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return err.Error()
	}
	return stderr + " (" + err.Error() + ")"
}

// renderVariants renders every theme of one diagram concurrently. The
// returned map is keyed by variant; any failure fails the whole diagram.
func renderVariants(ctx context.Context, r Renderer, source string, themes []Theme) (map[Variant][]byte, error) {
	type result struct {
		variant Variant
		svg     []byte
		err     error
	}

	results := make([]result, len(themes))
	var wg sync.WaitGroup
	for i, th := range themes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svg, err := r.Render(ctx, source, th)
			results[i] = result{variant: th.Variant, svg: svg, err: err}
		}()
	}
	wg.Wait()

	out := make(map[Variant][]byte, len(themes))
	var errs []error
	for _, res := range results {
		if res.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.variant, res.err))
			continue
		}
		out[res.variant] = res.svg
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
