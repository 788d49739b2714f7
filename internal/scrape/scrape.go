// Package scrape implements the browser-driven phases of the harvest: the
// skeleton collector that pulls a page's reference list apart (Phase 1) and
// the resolver that chases outbound links for missing DOIs (Phase 2).
package scrape

import (
	"context"
	"errors"
	"time"

	"github.com/litstack/refharvest/internal/bib"
)

// ErrNoReferences is returned when every selector strategy and the
// whole-page fallback produce nothing. Fatal for the run.
var ErrNoReferences = errors.New("no reference elements found")

// Navigator is the single-page browsing capability the scraping phases
// need. browser.Session satisfies it; tests substitute static fixtures.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
	ClickFirst(ctx context.Context, selectors ...string) bool
	BodyText(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)
	Location(ctx context.Context) (string, error)
}

// RefSkeleton is the phase-1 intermediate: a raw, possibly unresolved
// reference scraped from the page. The DOI field is filled in place during
// Phase 2; skeletons never outlive a pipeline run.
type RefSkeleton struct {
	Index        int
	RawTitle     string
	RawAuthors   string
	Year         int
	RegistryURL  string
	ScholarURL   string
	PublisherURL string
	DOI          string
}

// Config carries the immutable scraping knobs. Selector lists are tried in
// priority order; the first one yielding any matches wins.
type Config struct {
	// RevealSelectors are clicked (first visible wins) to expose the
	// references section on pages that hide it behind a tab.
	RevealSelectors []string
	// ItemSelectors locate individual reference container elements.
	ItemSelectors []string
	// JunkLabels is the case-insensitive set of boilerplate anchor texts
	// that must never be mistaken for a title.
	JunkLabels []string
	// MinTitleLen rejects anchor texts too short to be a real title.
	MinTitleLen int
	// CrawlDelay is the mandatory spacing between phase-2 resolutions,
	// matching the external site's published crawl-delay. Applied after
	// every attempt, including failures, since a failed navigation still
	// consumed a request.
	CrawlDelay time.Duration
}

// DefaultCrawlDelay mirrors the crawl-delay published by the scholarly
// sites the resolver visits.
const DefaultCrawlDelay = 10 * time.Second

// DefaultConfig returns the selector and label sets tuned for the
// publisher's reference markup.
func DefaultConfig() Config {
	return Config{
		RevealSelectors: []string{
			"#references",
			"a[href*='#references']",
			"a[href$='/references']",
			"button[id*='references']",
			"div.document-tab a[href*='references']",
		},
		ItemSelectors: []string{
			".reference-container",
			"[class*='reference'] li",
			".refs-container .reference",
			"#ref-list li",
		},
		JunkLabels:  append([]string(nil), bib.BoilerplateLabels...),
		MinTitleLen: 5,
		CrawlDelay:  DefaultCrawlDelay,
	}
}

// junkSet lowers the configured labels once for lookup.
func (c Config) junkSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.JunkLabels))
	for _, l := range c.JunkLabels {
		set[lower(l)] = struct{}{}
	}
	return set
}
