package extract

import "bytes"

// tag is one parsed component opening tag.
type tag struct {
	start int
	end   int // offset just past the closing > or />
	attrs map[string]string
}

// tagScanner finds <Name ...> tags for a single component name. Attribute
// values may be "double", 'single', {`template`} or {"expression"} quoted.
// Tags whose attributes cannot be parsed are skipped.
type tagScanner struct {
	src  []byte
	name []byte
	pos  int
}

func newTagScanner(src []byte, name string) *tagScanner {
	return &tagScanner{src: src, name: []byte("<" + name)}
}

// next returns the next well-formed tag.
func (s *tagScanner) next() (tag, bool) {
	for s.pos < len(s.src) {
		idx := bytes.Index(s.src[s.pos:], s.name)
		if idx < 0 {
			s.pos = len(s.src)
			return tag{}, false
		}
		start := s.pos + idx
		after := start + len(s.name)
		s.pos = after

		// <MermaidDiagram must not match <Mermaid.
		if after < len(s.src) && !isSpace(s.src[after]) && s.src[after] != '/' && s.src[after] != '>' {
			continue
		}

		t, ok := s.parseAttrs(start, after)
		if !ok {
			continue
		}
		s.pos = t.end
		return t, true
	}
	return tag{}, false
}

// parseAttrs reads attributes from i until the tag closes.
func (s *tagScanner) parseAttrs(start, i int) (tag, bool) {
	t := tag{start: start, attrs: make(map[string]string)}
	src := s.src
	for {
		i = skipSpace(src, i)
		if i >= len(src) {
			return tag{}, false
		}
		switch {
		case src[i] == '>':
			t.end = i + 1
			return t, true
		case src[i] == '/' && i+1 < len(src) && src[i+1] == '>':
			t.end = i + 2
			return t, true
		}

		nameStart := i
		for i < len(src) && isNameByte(src[i]) {
			i++
		}
		if i == nameStart {
			return tag{}, false
		}
		name := string(src[nameStart:i])

		i = skipSpace(src, i)
		if i >= len(src) || src[i] != '=' {
			// Boolean attribute.
			t.attrs[name] = ""
			continue
		}
		i = skipSpace(src, i+1)

		value, next, ok := readValue(src, i)
		if !ok {
			return tag{}, false
		}
		t.attrs[name] = value
		i = next
	}
}

// readValue reads a quoted or braced attribute value starting at i.
func readValue(src []byte, i int) (value string, next int, ok bool) {
	if i >= len(src) {
		return "", i, false
	}
	switch src[i] {
	case '"', '\'':
		return readQuoted(src, i, src[i])
	case '{':
		j := skipSpace(src, i+1)
		if j >= len(src) {
			return "", i, false
		}
		var (
			v   string
			end int
		)
		switch src[j] {
		case '`', '"', '\'':
			v, end, ok = readQuoted(src, j, src[j])
		default:
			return "", i, false
		}
		if !ok {
			return "", i, false
		}
		end = skipSpace(src, end)
		if end >= len(src) || src[end] != '}' {
			return "", i, false
		}
		return v, end + 1, true
	default:
		return "", i, false
	}
}

// readQuoted reads up to the matching unescaped quote. The raw text between
// quotes is returned; only \<quote> is unescaped so \n stays literal for the
// caller to handle.
func readQuoted(src []byte, i int, quote byte) (string, int, bool) {
	var buf bytes.Buffer
	for j := i + 1; j < len(src); j++ {
		c := src[j]
		if c == '\\' && j+1 < len(src) && src[j+1] == quote {
			buf.WriteByte(quote)
			j++
			continue
		}
		if c == quote {
			return buf.String(), j + 1, true
		}
		buf.WriteByte(c)
	}
	return "", i, false
}

func skipSpace(src []byte, i int) int {
	for i < len(src) && isSpace(src[i]) {
		i++
	}
	return i
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isNameByte(c byte) bool {
	return c == '-' || c == '_' || c == ':' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
