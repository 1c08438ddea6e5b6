package main

import (
	"fmt"
	"io"

	"github.com/alnah/go-diagramcache/internal/config"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: diagramcache <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Pre-render Mermaid diagrams found in Markdown/MDX content into a")
	fmt.Fprintln(w, "content-addressed cache of light and dark SVGs.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  build       Render every uncached diagram")
	fmt.Fprintln(w, "  watch       Re-render diagrams as content files change")
	fmt.Fprintln(w, "  render      Render a content file to HTML with cached diagrams")
	fmt.Fprintln(w, "  prune       Remove cache entries no longer referenced")
	fmt.Fprintln(w, "  doctor      Check renderer and cache setup")
	fmt.Fprintln(w, "  completion  Generate shell completion script")
	fmt.Fprintln(w, "  version     Show version information")
	fmt.Fprintln(w, "  help        Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'diagramcache help <command>' for details on a specific command.")
}

func printCommonFlags(w io.Writer) {
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path (yaml, yml, toml)")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show progress logs")
}

func printContentFlags(w io.Writer) {
	fmt.Fprintln(w, "Content:")
	fmt.Fprintln(w, "      --ext <list>          Content extensions (default .md,.mdx)")
	fmt.Fprintln(w, "      --exclude <list>      Directory glob patterns to skip")
	fmt.Fprintln(w, "                            (default node_modules,.git,.next)")
}

func printCacheFlags(w io.Writer) {
	fmt.Fprintln(w, "Cache:")
	fmt.Fprintf(w, "      --cache-dir <dir>     Artifact directory (default %s)\n", config.DefaultCacheDir)
	fmt.Fprintf(w, "      --public-prefix <s>   URL prefix in the manifest (default %s)\n", config.DefaultPublicPrefix)
}

func printRendererFlags(w io.Writer) {
	fmt.Fprintln(w, "Renderer:")
	fmt.Fprintln(w, "      --renderer <s>        Renderer: mmdc, browser (default mmdc)")
	fmt.Fprintln(w, "      --mmdc <path>         mermaid-cli binary (default mmdc on PATH)")
	fmt.Fprintln(w, "      --script-url <url>    Mermaid script for the browser renderer")
	fmt.Fprintf(w, "  -t, --timeout <dur>       Per-diagram timeout (default %s)\n", config.DefaultTimeout)
}

// printBuildUsage prints usage for the build command.
func printBuildUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: diagramcache build [content-dir] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render every diagram not yet in the cache, then save the manifest.")
	fmt.Fprintln(w, "Failed diagrams are reported and retried on the next build.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintf(w, "  content-dir    Content tree to scan (default %s)\n", config.DefaultContentDir)
	fmt.Fprintln(w)
	printContentFlags(w)
	fmt.Fprintln(w)
	printCacheFlags(w)
	fmt.Fprintln(w)
	printRendererFlags(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Build:")
	fmt.Fprintln(w, "      --prune               Remove unreferenced entries and artifacts")
	fmt.Fprintln(w, "      --dry-run             Report what would be rendered")
	fmt.Fprintln(w, "      --json                Print the summary as JSON")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printWatchUsage prints usage for the watch command.
func printWatchUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: diagramcache watch [content-dir] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Watch the content tree and render new diagrams of each saved file.")
	fmt.Fprintln(w, "Run build first to fill the cache; watch only handles changes.")
	fmt.Fprintln(w)
	printContentFlags(w)
	fmt.Fprintln(w)
	printCacheFlags(w)
	fmt.Fprintln(w)
	printRendererFlags(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Watch:")
	fmt.Fprintf(w, "      --debounce <dur>      Quiet period after a save (default %s)\n", config.DefaultDebounce)
	fmt.Fprintln(w, "      --rate <n>            Max file passes per second (0 = unlimited)")
	fmt.Fprintln(w, "      --metrics-addr <addr> Serve Prometheus metrics, e.g. :9090")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printRenderUsage prints usage for the render command.
func printRenderUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: diagramcache render <file> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert a Markdown/MDX file to a standalone HTML page. Cached diagrams")
	fmt.Fprintln(w, "are inlined in both themes; others fall back to their source.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Page:")
	fmt.Fprintln(w, "  -o, --output <path>       Output HTML file (default stdout)")
	fmt.Fprintln(w, "      --title <s>           Page title (default first # heading)")
	fmt.Fprintln(w, "      --asset-path <dir>    Custom templates/ and styles/ directory")
	fmt.Fprintln(w, "      --highlight-style <s> Chroma style for code blocks (default github)")
	fmt.Fprintln(w)
	printCacheFlags(w)
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printPruneUsage prints usage for the prune command.
func printPruneUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: diagramcache prune [content-dir] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Remove manifest entries and artifact files whose diagrams no longer")
	fmt.Fprintln(w, "appear in the content tree. Nothing is rendered.")
	fmt.Fprintln(w)
	printContentFlags(w)
	fmt.Fprintln(w)
	printCacheFlags(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Prune:")
	fmt.Fprintln(w, "      --dry-run             Report what would be removed")
	fmt.Fprintln(w, "      --json                Print the summary as JSON")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: diagramcache doctor [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check that the selected renderer is installed and the cache is writable.")
	fmt.Fprintln(w, "Exits 1 when a required check fails.")
	fmt.Fprintln(w)
	printCacheFlags(w)
	fmt.Fprintln(w)
	printRendererFlags(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Doctor:")
	fmt.Fprintln(w, "      --json                Print the report as JSON")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "build":
		printBuildUsage(env.Stdout)
	case "watch":
		printWatchUsage(env.Stdout)
	case "render":
		printRenderUsage(env.Stdout)
	case "prune":
		printPruneUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "completion":
		printCompletionUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: diagramcache version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: diagramcache help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
