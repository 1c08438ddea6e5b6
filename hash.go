package diagramcache

import (
	"fmt"
	"unicode/utf16"

	"github.com/alnah/go-diagramcache/internal/extract"
)

// KeyLength is the width of a diagram key in hex characters.
const KeyLength = 12

// HashDiagram returns the cache key for a diagram source.
//
// The key must stay byte-compatible with the page renderer's lookup, so the
// algorithm is fixed: trim surrounding whitespace, fold every UTF-16 code unit
// into a 32-bit accumulator as acc = acc*31 + unit with signed wraparound,
// then format |acc| as zero-padded lowercase hex cut to KeyLength.
// Collisions are possible; the expected population is a few hundred diagrams.
func HashDiagram(source string) string {
	var acc int32
	for _, unit := range utf16.Encode([]rune(extract.TrimSource(source))) {
		acc = (acc << 5) - acc + int32(unit)
	}

	// int64 so that |MinInt32| does not overflow.
	abs := int64(acc)
	if abs < 0 {
		abs = -abs
	}

	key := fmt.Sprintf("%0*x", KeyLength, abs)
	return key[:KeyLength]
}

// IsKey reports whether s has the shape of a diagram key.
func IsKey(s string) bool {
	if len(s) != KeyLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
