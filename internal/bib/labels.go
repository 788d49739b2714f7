package bib

import "strings"

// BoilerplateLabels are the anchor texts publishers attach to reference
// entries ("CrossRef", "View Article", ...). They are link chrome, never
// titles. One shared list feeds both the scraper's title extraction and
// the enricher's overwrite guard so the two sets cannot drift.
var BoilerplateLabels = []string{
	"crossref",
	"view article",
	"show article",
	"google scholar",
	"scopus",
	"pdf",
	"download",
	"doi",
	"web of science",
	"pubmed",
}

// IsBoilerplate reports whether value is one of the known link labels,
// compared case-insensitively after trimming.
func IsBoilerplate(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, label := range BoilerplateLabels {
		if v == label {
			return true
		}
	}
	return false
}
