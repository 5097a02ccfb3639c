package titles

import (
	"strings"
)

// CanonicalSeriesName derives the stable identity key for a series from a raw
// feed-entry title: the leading release-group tag, the episode segment and any
// trailing bracket segment are removed. The result is idempotent, so an
// already-canonical name passes through unchanged.
func CanonicalSeriesName(raw string) string {
	name := stripLeadingGroupTag(raw)

	// everything after the first " - " is the episode marker
	if idx := strings.Index(name, " - "); idx != -1 {
		name = name[:idx]
	}

	// trailing bracket segment, e.g. quality tags
	if idx := strings.Index(name, "["); idx != -1 {
		name = name[:idx]
	}

	return strings.TrimSpace(name)
}

// EpisodeLabel extracts the episode portion of a raw title: the substring
// after the last " - ", with any trailing bracket segment removed. A title
// with no separator yields the whole cleaned title, callers must tolerate
// this rather than treating it as an error.
func EpisodeLabel(raw string) string {
	label := stripLeadingGroupTag(raw)

	if idx := strings.LastIndex(label, " - "); idx != -1 {
		label = label[idx+len(" - "):]
	}

	if idx := strings.Index(label, "["); idx != -1 {
		label = label[:idx]
	}

	return strings.TrimSpace(label)
}

// SanitizeKey reduces a title to a filesystem-safe cache key: only
// alphanumerics, space, hyphen and underscore survive, trailing whitespace is
// trimmed. An empty result is valid, degenerate keys may collide.
func SanitizeKey(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune(r)
		}
	}

	return strings.TrimRight(b.String(), " ")
}

// stripLeadingGroupTag removes a release-group tag such as "[SubsPlease]"
// from the front of a title.
func stripLeadingGroupTag(title string) string {
	trimmed := strings.TrimLeft(title, " ")
	if !strings.HasPrefix(trimmed, "[") {
		return strings.TrimSpace(title)
	}

	end := strings.Index(trimmed, "]")
	if end == -1 {
		return strings.TrimSpace(title)
	}

	return strings.TrimSpace(trimmed[end+1:])
}
