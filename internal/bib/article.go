// Package bib defines the bibliographic record types shared across the
// harvesting pipeline and the author-string parsing helpers.
package bib

import (
	"fmt"
	"strings"
	"time"
)

// UnresolvedPrefix marks synthetic identifiers assigned to references whose
// DOI could not be resolved. The page-relative index keeps distinct
// unresolved entries from collapsing into one record.
const UnresolvedPrefix = "UNRESOLVED-"

// Article is the final unit handed to the caller for merge into the
// persisted catalogue. JSON tags match the on-disk catalogue schema.
type Article struct {
	DOI            string    `json:"doi"`
	Title          string    `json:"title"`
	Authors        []string  `json:"authors"`
	Year           int       `json:"year,omitempty"`
	Venue          string    `json:"venue"`
	Abstract       string    `json:"abstract"`
	RegistryURL    string    `json:"crossref_url"`
	ScholarURL     string    `json:"google_scholar_url"`
	PublisherURL   string    `json:"ieee_url"`
	PDFURL         string    `json:"pdf_url"`
	LocalPath      string    `json:"local_path"`
	AccessedDate   time.Time `json:"accessed_date"`
	RelevanceScore float64   `json:"relevance_score"`
	Notes          string    `json:"notes"`
	ManuallyEdited bool      `json:"manually_edited"`
}

// Unresolved reports whether the article carries a synthetic identifier
// instead of a real DOI.
func (a Article) Unresolved() bool {
	return strings.HasPrefix(a.DOI, UnresolvedPrefix)
}

// UnresolvedID builds the synthetic identifier for a reference at the
// given page-relative index.
func UnresolvedID(index int) string {
	return fmt.Sprintf("%s%d", UnresolvedPrefix, index)
}

// SameDOI compares identifiers case-insensitively, the rule the caller's
// catalogue uses for deduplication.
func SameDOI(a, b string) bool {
	return strings.EqualFold(a, b)
}
