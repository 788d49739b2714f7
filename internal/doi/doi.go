// Package doi extracts, normalizes, and sanitizes DOI identifiers.
package doi

import (
	"regexp"
	"strings"
)

// pattern matches a DOI token: "10.", a 4-9 digit registrant, and a suffix
// running until whitespace or a character that cannot appear in a DOI.
var pattern = regexp.MustCompile(`(?i)10\.\d{4,9}/[^\s<>"{}|\\^` + "`" + `]+`)

var (
	resolverPrefix = regexp.MustCompile(`(?i)^https?://(dx\.)?doi\.org/`)
	schemePrefix   = regexp.MustCompile(`(?i)^doi:\s*`)
	trailingJunk   = regexp.MustCompile(`[\]\[)>(\"'.,;]+$`)
)

// Extract returns the first DOI-shaped token found in text, trimmed of
// trailing punctuation and closing brackets. Empty string when none found.
func Extract(text string) string {
	match := pattern.FindString(text)
	if match == "" {
		return ""
	}
	return trailingJunk.ReplaceAllString(match, "")
}

// ExtractAll returns every DOI-shaped token in text, each trimmed like
// Extract, in order of appearance. Duplicates are kept.
func ExtractAll(text string) []string {
	matches := pattern.FindAllString(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if id := trailingJunk.ReplaceAllString(m, ""); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// Normalize strips resolver URLs and "doi:" prefixes plus trailing
// punctuation from a raw identifier. Empty string means no identifier.
func Normalize(raw string) string {
	id := strings.TrimSpace(raw)
	if id == "" {
		return ""
	}
	id = resolverPrefix.ReplaceAllString(id, "")
	id = schemePrefix.ReplaceAllString(id, "")
	id = strings.TrimSpace(id)
	id = trailingJunk.ReplaceAllString(id, "")
	return id
}

const (
	// fallbackName is used when sanitization leaves nothing usable.
	fallbackName = "article"
	// maxFilenameLen keeps generated names under common filesystem limits.
	maxFilenameLen = 120
)

var (
	invalidFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
	repeatedSeparators   = regexp.MustCompile(`[._-]{2,}`)
)

// SafeFilename converts an identifier into a name safe to join onto an
// output directory. Traversal sequences are removed before the character
// whitelist is applied so allowed characters cannot recombine into one.
func SafeFilename(id string) string {
	name := id
	for _, seq := range []string{"..", "./", ".\\"} {
		name = strings.ReplaceAll(name, seq, "")
	}
	name = invalidFilenameChars.ReplaceAllString(name, "_")
	name = repeatedSeparators.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._-")
	if name == "" {
		name = fallbackName
	}
	if len(name) > maxFilenameLen {
		name = name[:maxFilenameLen]
	}
	return name
}
