package engine

import (
	"strings"

	"github.com/gatewaykit/portage/internal/bundle"
)

// Rewrite substitutes already-resolved source ids inside opaque entity
// content. The scan is a single left-to-right pass over the original
// content, so substitutions never cascade: a substituted target id that
// happens to equal another source id is not rewritten again. Only
// whole-token occurrences are rewritten - a match is discarded when an
// adjacent character is alphanumeric, so a resolved id never rewrites
// the inside of a longer id.
//
// Only ids present in the substitution table are touched. By bundle
// precondition those are exactly the dependencies that appear earlier
// in the mapping list; CheckStale catches the ids that should have been
// resolved but were not.
func Rewrite(content string, subs bundle.Substitutions) string {
	if len(subs) == 0 || content == "" {
		return content
	}

	var b strings.Builder
	i := 0
	for i < len(content) {
		srcID, ok := matchAt(content, i, subs)
		if !ok {
			i++
			continue
		}
		if b.Len() == 0 {
			b.Grow(len(content))
		}
		b.WriteString(content[:i])
		b.WriteString(subs[srcID])
		content = content[i+len(srcID):]
		i = 0
	}

	if b.Len() == 0 {
		return content
	}
	b.WriteString(content)
	return b.String()
}

// CheckStale returns the first id from pending that appears as a whole
// token in content, or "". A hit means the content depends on an entity
// whose mapping has not been resolved yet - a dependency-order
// violation the caller must treat as fatal rather than persist a stale
// source-side id.
func CheckStale(content string, pending map[string]bool) string {
	for i := 0; i < len(content); i++ {
		if id, ok := matchAt(content, i, pending); ok {
			return id
		}
	}
	return ""
}

// matchAt returns the longest id from the table that occurs as a whole
// token at offset i. Longest-match keeps the result independent of map
// iteration order when one table id prefixes another.
func matchAt[V any](content string, i int, ids map[string]V) (string, bool) {
	best := ""
	for id := range ids {
		if len(id) <= len(best) || id == "" {
			continue
		}
		if strings.HasPrefix(content[i:], id) && isTokenBoundary(content, i, len(id)) {
			best = id
		}
	}
	return best, best != ""
}

// isTokenBoundary reports whether the match at [i, i+n) is delimited by
// non-alphanumeric characters (or the ends of the content).
func isTokenBoundary(content string, i, n int) bool {
	if i > 0 && isIDChar(content[i-1]) {
		return false
	}
	if end := i + n; end < len(content) && isIDChar(content[end]) {
		return false
	}
	return true
}

// isIDChar reports whether b can appear inside an entity id. Hyphens
// are deliberately excluded: ids in the substitution table are always
// complete ids, never UUID segments, so a hyphen is a valid delimiter.
func isIDChar(b byte) bool {
	return b >= '0' && b <= '9' ||
		b >= 'a' && b <= 'z' ||
		b >= 'A' && b <= 'Z'
}
