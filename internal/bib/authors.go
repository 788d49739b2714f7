package bib

import (
	"regexp"
	"strings"
)

var (
	ordinalPrefix = regexp.MustCompile(`^\s*(\[\d+\]|\d+\.)\s*`)
	andSplitter   = regexp.MustCompile(`(?i)\s+and\s+`)
	pageRange     = regexp.MustCompile(`^\d+\s*[-–—]\s*\d+$`)
	citationNoise = regexp.MustCompile(`(?i)^(pp?\.|vol\.|no\.|pages?)\b`)
	orgAbbrev     = regexp.MustCompile(`^[A-Z]{2,6}$`)
)

// ParseAuthors splits the raw authors fragment of a scraped citation into
// individual names. The leading reference number is stripped, fragments
// are split on commas and the word "and", and tokens that are clearly not
// names (page ranges, "pp."/"vol." noise, bare organization abbreviations)
// are discarded.
func ParseAuthors(raw string) []string {
	raw = ordinalPrefix.ReplaceAllString(raw, "")
	raw = andSplitter.ReplaceAllString(raw, ",")

	var authors []string
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		name = strings.Trim(name, ".;:")
		if !looksLikeName(name) {
			continue
		}
		authors = append(authors, name)
	}
	return authors
}

func looksLikeName(s string) bool {
	if len(s) < 2 {
		return false
	}
	if pageRange.MatchString(s) {
		return false
	}
	if citationNoise.MatchString(s) {
		return false
	}
	if orgAbbrev.MatchString(s) {
		return false
	}
	return true
}
