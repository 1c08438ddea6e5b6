package pipeline

import (
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RelinkFragment rewrites relative img[src] and a[href] references in an HTML
// body fragment so they still resolve when the page is written to outputDir
// instead of next to its source in sourceDir. References escaping sourceDir,
// URLs, anchors and absolute paths are left alone. Equal directories return
// the fragment unchanged.
func RelinkFragment(fragment, sourceDir, outputDir string) (string, error) {
	src, err := filepath.Abs(sourceDir)
	if err != nil {
		return "", err
	}
	out, err := filepath.Abs(outputDir)
	if err != nil {
		return "", err
	}
	if src == out {
		return fragment, nil
	}

	body := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	for _, n := range nodes {
		relinkNode(n, src, out)
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func relinkNode(n *html.Node, sourceDir, outputDir string) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Img:
			relinkAttr(n, "src", sourceDir, outputDir)
		case atom.A:
			relinkAttr(n, "href", sourceDir, outputDir)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		relinkNode(c, sourceDir, outputDir)
	}
}

func relinkAttr(n *html.Node, key, sourceDir, outputDir string) {
	for i, attr := range n.Attr {
		if attr.Key != key || !isRelativeRef(attr.Val) {
			continue
		}

		ref, suffix := splitRef(attr.Val)
		target := filepath.Join(sourceDir, filepath.FromSlash(ref))
		if !isPathUnderDir(target, sourceDir) {
			continue
		}
		rel, err := filepath.Rel(outputDir, target)
		if err != nil {
			continue
		}
		n.Attr[i].Val = filepath.ToSlash(rel) + suffix
	}
}

// splitRef separates a reference from its ?query or #fragment.
func splitRef(ref string) (path, suffix string) {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		return ref[:i], ref[i:]
	}
	return ref, ""
}

// isRelativeRef reports whether ref is a relative filesystem reference.
func isRelativeRef(ref string) bool {
	if ref == "" || strings.HasPrefix(ref, "#") || strings.HasPrefix(ref, "//") {
		return false
	}
	if u, err := url.Parse(ref); err != nil || u.Scheme != "" {
		return false
	}
	return !strings.HasPrefix(ref, "/") && !filepath.IsAbs(ref)
}

// isPathUnderDir checks that path stays inside dir after cleaning.
func isPathUnderDir(path, dir string) bool {
	rel, err := filepath.Rel(dir, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
