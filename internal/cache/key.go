package cache

import (
	"fmt"
	"hash/fnv"
	"strings"
)

const (
	// maxKeyTextLength bounds the normalized text portion of a cache key.
	// Longer inputs are truncated to a prefix plus a content hash so that
	// distinct long texts never collide on the prefix alone.
	maxKeyTextLength = 500

	keyDelimiter = "||"
)

// NormalizeKeyText produces the canonical text portion of a cache key: trimmed,
// internal whitespace collapsed to single spaces, and length-limited to a
// fixed prefix plus an FNV-1a hash of the full collapsed string.
func NormalizeKeyText(text string) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	if len(collapsed) <= maxKeyTextLength {
		return collapsed
	}
	prefix := collapsed[:maxKeyTextLength/2]
	return prefix + "__" + hashText(collapsed)
}

// Key derives the cache key for one operation of one engine on one language
// pair. The same function is used on read and write paths everywhere so the
// normalization can never diverge between them.
func Key(engine, from, to, text string) string {
	return strings.Join([]string{engine, from, to, NormalizeKeyText(text)}, keyDelimiter)
}

func hashText(s string) string {
	h := fnv.New32a()
	h.Write([]byte(s))
	return fmt.Sprintf("%08x", h.Sum32())
}
