package files

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// MatchPath reports whether the slash-separated path matches pattern. The
// pattern must already be valid and normalized (see [NormalizePattern]).
//
// Path segments starting with a dot are hidden: wildcards (`*`, `?`, `[...]`,
// `**`) never match them, so a hidden file or directory only matches when the
// pattern segment for it starts with a dot, as in `.github/**` or `src/.*`.
func MatchPath(pattern, path string) bool {
	if !doublestar.MatchUnvalidated(pattern, path) {
		return false
	}

	if !hasHiddenSegment(path) {
		return true
	}

	return matchSegments(strings.Split(pattern, "/"), strings.Split(path, "/"))
}

func matchSegments(pattern, path []string) bool {
	if len(pattern) == 0 {
		return len(path) == 0
	}

	if pattern[0] == "**" {
		if matchSegments(pattern[1:], path) {
			return true
		}

		for i, seg := range path {
			if isHidden(seg) {
				return false
			}
			if matchSegments(pattern[1:], path[i+1:]) {
				return true
			}
		}

		return false
	}

	if len(path) == 0 {
		return false
	}

	if isHidden(path[0]) && !spellsDot(pattern[0]) {
		return false
	}

	ok, err := doublestar.Match(pattern[0], path[0])
	if err != nil || !ok {
		return false
	}

	return matchSegments(pattern[1:], path[1:])
}

// spellsDot reports whether a pattern segment names a leading dot, either
// directly or as the start of a brace alternative.
func spellsDot(segment string) bool {
	return strings.HasPrefix(segment, ".") ||
		strings.Contains(segment, "{.") ||
		strings.Contains(segment, ",.")
}

func isHidden(segment string) bool {
	return strings.HasPrefix(segment, ".") && segment != "." && segment != ".."
}

func hasHiddenSegment(path string) bool {
	for seg := range strings.SplitSeq(path, "/") {
		if isHidden(seg) {
			return true
		}
	}

	return false
}
