package pipeline

import (
	"bytes"
	"errors"
	"regexp"
)

// ErrNoSVGRoot indicates the renderer output has no <svg> element.
var ErrNoSVGRoot = errors.New("no <svg> root element")

// Precompiled regex patterns for SVG cleanup.
var (
	// XML prolog and processing instructions before the root element.
	xmlProlog = regexp.MustCompile(`<\?xml[^?]*\?>`)

	// Root opening tag, including attributes spread across lines.
	svgOpenTag = regexp.MustCompile(`<svg\b[^>]*>`)

	// Sizing attributes on the root tag. Leading whitespace is consumed, and
	// when the attribute starts its own line the line break goes with it, so
	// neither double spaces nor blank lines are left behind.
	sizeAttr = regexp.MustCompile(`(?:[ \t]*\r?\n[ \t]*|[ \t]+)(?:width|height)\s*=\s*(?:"[^"]*"|'[^']*')`)

	// Existing class attribute on the root tag.
	classAttr = regexp.MustCompile(`\sclass\s*=\s*"([^"]*)"`)
)

// CleanSVG prepares renderer output for inline embedding: it drops the XML
// prolog, adds class to the root <svg> element and removes the root's fixed
// width and height so CSS controls sizing. Nested elements are untouched.
func CleanSVG(svg []byte, class string) ([]byte, error) {
	svg = xmlProlog.ReplaceAll(svg, nil)

	loc := svgOpenTag.FindIndex(svg)
	if loc == nil {
		return nil, ErrNoSVGRoot
	}

	root := sizeAttr.ReplaceAll(svg[loc[0]:loc[1]], nil)
	root = addClass(root, class)

	var out bytes.Buffer
	out.Grow(len(svg))
	out.Write(svg[:loc[0]])
	out.Write(root)
	out.Write(svg[loc[1]:])

	return bytes.TrimSpace(out.Bytes()), nil
}

// addClass merges class into the root tag's class attribute, or inserts one
// directly after the element name.
func addClass(root []byte, class string) []byte {
	if class == "" {
		return root
	}
	if m := classAttr.FindSubmatchIndex(root); m != nil {
		existing := root[m[2]:m[3]]
		for _, c := range bytes.Fields(existing) {
			if string(c) == class {
				return root
			}
		}
		var b bytes.Buffer
		b.Write(root[:m[3]])
		if len(bytes.TrimSpace(existing)) > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(class)
		b.Write(root[m[3]:])
		return b.Bytes()
	}

	var b bytes.Buffer
	b.WriteString(`<svg class="`)
	b.WriteString(class)
	b.WriteByte('"')
	b.Write(root[len("<svg"):])
	return b.Bytes()
}
