package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"

	diagramcache "github.com/alnah/go-diagramcache"
	"github.com/alnah/go-diagramcache/internal/config"
)

// versionTimeout bounds each `--version` check.
const versionTimeout = 10 * time.Second

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"` // "ready", "warnings", "errors"
	Renderer string     `json:"renderer"`
	MMDC     mmdcInfo   `json:"mmdc"`
	Chrome   chromeInfo `json:"chrome"`
	Cache    cacheInfo  `json:"cache"`
	Content  string     `json:"content_dir"`
	Env      envInfo    `json:"environment"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// mmdcInfo holds mermaid-cli detection results.
type mmdcInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// cacheInfo holds artifact store checks.
type cacheInfo struct {
	Dir      string `json:"dir"`
	Exists   bool   `json:"exists"`
	Writable bool   `json:"writable"`
	Entries  int    `json:"entries"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found, 2 = bad flags.
func runDoctorCmd(args []string, env *Environment) int {
	f := &doctorFlags{}
	if _, err := parseArgs(doctorFlagSet(f), args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			runHelp([]string{"doctor"}, env)
			return ExitSuccess
		}
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return ExitUsage
	}

	cfg, err := loadConfig(&f.common, env)
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return exitCodeFor(err)
	}
	mergeCacheFlags(&f.cache, cfg)
	mergeRendererFlags(&f.renderer, cfg)

	result := runDoctor(cfg)

	if f.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(cfg *config.Config) *doctorResult {
	result := &doctorResult{
		Status:   "ready",
		Renderer: cfg.Renderer.Kind,
		Content:  cfg.Content.Dir,
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  os.Getenv("ROD_NO_SANDBOX"),
			BrowserBin: os.Getenv("ROD_BROWSER_BIN"),
		},
	}

	browser := cfg.Renderer.Kind == config.RendererBrowser
	checkMMDC(result, cfg.Renderer.Binary, !browser)
	checkChrome(result, browser)
	checkCache(result, cfg.Cache.Dir)
	checkContent(result, cfg.Content.Dir)
	checkEnvironment(result)

	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}
	return result
}

// report records msg as an error when the check is required, else a warning.
func (r *doctorResult) report(required bool, msg string) {
	if required {
		r.Errors = append(r.Errors, msg)
		return
	}
	r.Warnings = append(r.Warnings, msg)
}

// checkMMDC resolves mermaid-cli and asks it for its version.
func checkMMDC(result *doctorResult, bin string, required bool) {
	m, err := diagramcache.NewMermaidCLI(bin)
	if err != nil {
		result.report(required, "mermaid-cli not found. Install with: npm install -g @mermaid-js/mermaid-cli")
		return
	}
	result.MMDC.Found = true
	result.MMDC.Path = m.Bin

	ctx, cancel := context.WithTimeout(context.Background(), versionTimeout)
	defer cancel()
	stdout, _, err := m.Runner.Run(ctx, m.Bin, "--version")
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get mermaid-cli version: %v", err))
		return
	}
	result.MMDC.Version = strings.TrimSpace(stdout)
}

// checkChrome detects Chrome/Chromium installation.
func checkChrome(result *doctorResult, required bool) {
	chromePath := result.Env.BrowserBin

	if chromePath == "" {
		var found bool
		chromePath, found = launcher.LookPath()
		if !found {
			result.report(required, "Chrome/Chromium not found. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}

	if _, err := os.Stat(chromePath); err != nil {
		result.report(required, fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	cmd := exec.Command(chromePath, "--version") // #nosec G204 -- path from launcher or ROD_BROWSER_BIN
	out, err := cmd.Output()
	if err == nil {
		result.Chrome.Version = strings.TrimSpace(string(out))
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
	}

	// Sandbox status: disabled if ROD_NO_SANDBOX=1
	result.Chrome.Sandbox = result.Env.NoSandbox != "1"
}

// checkCache verifies the cache directory is writable and counts entries.
// A missing directory is only a warning: build creates it.
func checkCache(result *doctorResult, dir string) {
	result.Cache.Dir = dir

	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Cache directory %s does not exist yet; build will create it", dir))
		return
	}
	if err != nil || !info.IsDir() {
		result.Errors = append(result.Errors, fmt.Sprintf("Cache path %s is not a directory", dir))
		return
	}
	result.Cache.Exists = true

	tmp, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cache directory not writable: %s", dir))
		return
	}
	_ = tmp.Close()
	_ = os.Remove(tmp.Name())
	result.Cache.Writable = true

	store, err := diagramcache.OpenStore(dir)
	if err == nil {
		err = store.Load()
	}
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Could not read manifest: %v", err))
		return
	}
	result.Cache.Entries = store.Len()
}

// checkContent warns when the content directory is missing.
func checkContent(result *doctorResult, dir string) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Content directory %s not found", dir))
	}
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult) {
	result.Env.Container, result.Env.ContainerHint = isContainer()

	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	// mmdc drives its own headless Chrome.
	if (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer() (bool, string) {
	if os.Getenv("DIAGRAMCACHE_CONTAINER") == "1" {
		return true, "DIAGRAMCACHE_CONTAINER=1"
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	if v := os.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "diagramcache doctor")
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Renderer (%s)\n", r.Renderer)
	if r.MMDC.Found {
		fmt.Fprintf(w, "  [OK] mermaid-cli: %s\n", r.MMDC.Path)
		if r.MMDC.Version != "" {
			fmt.Fprintf(w, "  [OK] mermaid-cli version: %s\n", r.MMDC.Version)
		}
	} else {
		fmt.Fprintln(w, "  [--] mermaid-cli: not found")
	}
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Chrome: %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Chrome version: %s\n", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled (ROD_NO_SANDBOX=1)")
		}
	} else {
		fmt.Fprintln(w, "  [--] Chrome: not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Cache")
	switch {
	case r.Cache.Writable:
		fmt.Fprintf(w, "  [OK] %s: writable, %d entries\n", r.Cache.Dir, r.Cache.Entries)
	case r.Cache.Exists:
		fmt.Fprintf(w, "  [ERROR] %s: not writable\n", r.Cache.Dir)
	default:
		fmt.Fprintf(w, "  [--] %s: not created yet\n", r.Cache.Dir)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to build")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
