package extract

import (
	"bytes"
	"strings"
)

// RewriteComponents replaces every component invocation carrying the source
// attribute with an equivalent fenced code block, so a plain CommonMark
// renderer sees one authoring form. A matching closing tag directly after a
// non self-closing invocation is consumed too. Other content is unchanged.
func (e *Extractor) RewriteComponents(content []byte) []byte {
	content = NormalizeNewlines(content)

	var out bytes.Buffer
	last := 0
	s := newTagScanner(content, e.component)
	closing := []byte("</" + e.component + ">")
	for {
		t, ok := s.next()
		if !ok {
			break
		}
		value, found := t.attrs[e.attribute]
		if !found {
			continue
		}

		end := t.end
		if content[t.end-2] != '/' {
			j := skipSpace(content, t.end)
			if bytes.HasPrefix(content[j:], closing) {
				end = j + len(closing)
			}
		}

		out.Write(content[last:t.start])
		if t.start > 0 && content[t.start-1] != '\n' {
			out.WriteByte('\n')
		}
		out.WriteString(e.fence(strings.TrimSpace(UnescapeNewlines(value))))
		last = end
	}
	if last == 0 {
		return content
	}
	out.Write(content[last:])
	return out.Bytes()
}

// fence wraps source in a code fence long enough not to be closed by any
// backtick run inside it.
func (e *Extractor) fence(source string) string {
	longest, run := 0, 0
	for i := 0; i < len(source); i++ {
		if source[i] == '`' {
			run++
			longest = max(longest, run)
			continue
		}
		run = 0
	}
	marker := strings.Repeat("`", max(3, longest+1))
	return marker + e.language + "\n" + source + "\n" + marker + "\n"
}
