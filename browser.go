package diagramcache

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultMermaidScript is the Mermaid bundle loaded by BrowserRenderer.
const DefaultMermaidScript = "https://cdn.jsdelivr.net/npm/mermaid@11/dist/mermaid.min.js"

// renderScript loads Mermaid once per page and renders one diagram.
// Arguments: script URL, source, theme name, element id.
const renderScript = `async (src, code, theme, id) => {
  if (!window.mermaid) {
    await new Promise((resolve, reject) => {
      const s = document.createElement("script");
      s.src = src;
      s.onload = resolve;
      s.onerror = () => reject(new Error("failed to load " + src));
      document.head.appendChild(s);
    });
  }
  window.mermaid.initialize({ startOnLoad: false, securityLevel: "strict", theme: theme });
  const { svg } = await window.mermaid.render(id, code);
  return svg;
}`

// Compile-time interface implementation check.
var _ Renderer = (*BrowserRenderer)(nil)

// BrowserRenderer renders diagrams with Mermaid running in headless Chrome
// (go-rod). It avoids the Node toolchain at the cost of a browser download
// on first use (~/.cache/rod/browser/).
//
// Set ROD_BROWSER_BIN to use an installed Chrome; set ROD_NO_SANDBOX=1 in
// containers.
type BrowserRenderer struct {
	scriptURL string
	timeout   time.Duration

	mu      sync.Mutex
	browser *rod.Browser
	seq     atomic.Uint64
}

// NewBrowserRenderer creates a BrowserRenderer. The browser starts lazily on
// the first Render call.
func NewBrowserRenderer(scriptURL string, timeout time.Duration) *BrowserRenderer {
	if scriptURL == "" {
		scriptURL = DefaultMermaidScript
	}
	if timeout <= 0 {
		timeout = defaultRenderTimeout
	}
	return &BrowserRenderer{scriptURL: scriptURL, timeout: timeout}
}

// ensureBrowser lazily launches and connects to the browser.
func (r *BrowserRenderer) ensureBrowser() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	l := launcher.New()
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	r.browser = b
	return b, nil
}

// Start launches the browser now rather than on the first Render, so
// connection problems surface before any content is scanned.
func (r *BrowserRenderer) Start() error {
	_, err := r.ensureBrowser()
	return err
}

// Render opens a blank page, loads Mermaid and renders source with theme.
func (r *BrowserRenderer) Render(ctx context.Context, source string, theme Theme) ([]byte, error) {
	if strings.TrimSpace(source) == "" {
		return nil, ErrEmptySource
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	browser, err := r.ensureBrowser()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %v", ErrRenderFailed, ErrPageLoad, err)
	}
	defer func() { _ = page.Close() }()

	page = page.Context(ctx).Timeout(r.timeout)

	id := fmt.Sprintf("diagram-%d", r.seq.Add(1))
	res, err := page.Eval(renderScript, r.scriptURL, source, theme.Name, id)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrRenderFailed, ctxErr)
		}
		return nil, fmt.Errorf("%w: %s theme: %v", ErrRenderFailed, theme.Name, err)
	}

	svg := res.Value.Str()
	if svg == "" {
		return nil, fmt.Errorf("%w: %s theme: empty output", ErrRenderFailed, theme.Name)
	}
	return []byte(svg), nil
}

// Close releases browser resources.
func (r *BrowserRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		err := r.browser.Close()
		r.browser = nil
		return err
	}
	return nil
}
