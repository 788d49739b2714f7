package scrape

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/litstack/refharvest/internal/doi"
)

var (
	// quotedTitle prefers the `Author, "Title," venue, year` citation
	// style; straight and curly quotes both appear in the wild.
	quotedTitle   = regexp.MustCompile(`["\x{201C}]([^"\x{201C}\x{201D}]{5,300})["\x{201D}]`)
	yearToken     = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	ordinalPrefix = regexp.MustCompile(`^\s*(\[\d+\]|\d+\.)\s*`)
)

func lower(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// firstNonEmpty tries each selector in priority order and returns the
// matches of the first one that yields any. Empty-result selectors are
// skipped, not retried.
func firstNonEmpty(doc *goquery.Document, selectors []string) *goquery.Selection {
	for _, sel := range selectors {
		if found := doc.Find(sel); found.Length() > 0 {
			return found
		}
	}
	return nil
}

// parseElement turns one reference container element into a skeleton.
func parseElement(index int, sel *goquery.Selection, cfg Config, junk map[string]struct{}) RefSkeleton {
	skel := RefSkeleton{Index: index}
	text := strings.TrimSpace(sel.Text())

	skel.RawTitle = extractTitle(text, sel, cfg, junk)
	skel.RawAuthors = extractAuthors(text, skel.RawTitle)
	skel.Year = extractYear(text)
	skel.DOI = doi.Normalize(doi.Extract(text))
	classifyLinks(&skel, sel)
	return skel
}

// extractTitle prefers a quoted substring, falling back to the first
// anchor whose text is neither a boilerplate label nor too short.
func extractTitle(text string, sel *goquery.Selection, cfg Config, junk map[string]struct{}) string {
	if m := quotedTitle.FindStringSubmatch(text); m != nil {
		return strings.TrimRight(strings.TrimSpace(m[1]), ",")
	}
	var title string
	sel.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		candidate := strings.TrimSpace(a.Text())
		if len(candidate) < cfg.MinTitleLen {
			return true
		}
		if _, isJunk := junk[lower(candidate)]; isJunk {
			return true
		}
		title = candidate
		return false
	})
	return title
}

// extractAuthors takes everything preceding the title and strips the
// leading reference-number prefix.
func extractAuthors(text, title string) string {
	if title == "" {
		return ""
	}
	idx := strings.Index(text, title)
	if idx <= 0 {
		return ""
	}
	authors := strings.TrimSpace(text[:idx])
	authors = ordinalPrefix.ReplaceAllString(authors, "")
	return strings.Trim(authors, `,"' `)
}

// extractYear finds the first 4-digit 19xx/20xx token.
func extractYear(text string) int {
	token := yearToken.FindString(text)
	if token == "" {
		return 0
	}
	year, err := strconv.Atoi(token)
	if err != nil {
		return 0
	}
	return year
}

// classifyLinks assigns each outbound anchor to at most one of the three
// provenance slots and captures an inline DOI encoded in the registry link.
func classifyLinks(skel *RefSkeleton, sel *goquery.Selection) {
	sel.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		text := lower(a.Text())
		lowHref := strings.ToLower(href)
		if href == "" {
			return
		}
		switch {
		case strings.Contains(text, "crossref") ||
			strings.Contains(lowHref, "doi.org") ||
			strings.Contains(lowHref, "crossref.org"):
			if skel.RegistryURL == "" {
				skel.RegistryURL = href
			}
			if skel.DOI == "" {
				skel.DOI = doi.Normalize(doi.Extract(href))
			}
		case strings.Contains(text, "google scholar") ||
			strings.Contains(lowHref, "scholar.google"):
			if skel.ScholarURL == "" {
				skel.ScholarURL = href
			}
		case strings.Contains(text, "view article") ||
			strings.Contains(text, "show article") ||
			strings.Contains(lowHref, "ieee.org") ||
			strings.Contains(lowHref, "/document/"):
			if skel.PublisherURL == "" {
				skel.PublisherURL = href
			}
		}
	})
}

// uniqueDOIs scans free text for identifier tokens, preserving first-seen
// order and deduplicating case-insensitively.
func uniqueDOIs(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, raw := range doi.ExtractAll(text) {
		id := doi.Normalize(raw)
		if id == "" {
			continue
		}
		key := strings.ToLower(id)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, id)
	}
	return out
}
