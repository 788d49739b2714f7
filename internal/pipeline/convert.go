package pipeline

import (
	"strconv"
	"strings"
	"time"

	"github.com/litstack/refharvest/internal/bib"
	"github.com/litstack/refharvest/internal/doi"
	"github.com/litstack/refharvest/internal/registry"
	"github.com/litstack/refharvest/internal/scrape"
)

// skeletonsToArticles converts scraped skeletons into article records.
// Duplicate identifiers collapse case-insensitively onto the first entry;
// references that stayed unresolved get a synthetic page-indexed
// identifier so they survive the merge without colliding.
func skeletonsToArticles(skeletons []scrape.RefSkeleton) []bib.Article {
	articles := make([]bib.Article, 0, len(skeletons))
	seen := make(map[string]struct{}, len(skeletons))

	for _, skel := range skeletons {
		id := doi.Normalize(skel.DOI)
		if id == "" {
			id = bib.UnresolvedID(skel.Index)
		} else {
			key := strings.ToLower(id)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}

		a := bib.Article{
			DOI:          id,
			Title:        strings.TrimSpace(skel.RawTitle),
			Authors:      bib.ParseAuthors(skel.RawAuthors),
			Year:         skel.Year,
			RegistryURL:  skel.RegistryURL,
			ScholarURL:   skel.ScholarURL,
			PublisherURL: skel.PublisherURL,
		}
		if a.DOI == bib.UnresolvedID(skel.Index) {
			a.Notes = "identifier could not be resolved from any linked source"
		}
		articles = append(articles, a)
	}
	return articles
}

// referencesToArticles maps the registry's bibliography listing straight
// to article records, the shape the fast path returns. Listing entries
// without a DOI carry no stable identity and are dropped; the browser
// path is the place for unresolved material. Each record is stamped with
// the day it was fetched.
func referencesToArticles(refs []registry.Reference) []bib.Article {
	articles := make([]bib.Article, 0, len(refs))
	seen := make(map[string]struct{}, len(refs))
	today := time.Now().UTC().Truncate(24 * time.Hour)

	for _, ref := range refs {
		id := doi.Normalize(ref.DOI)
		if id == "" {
			continue
		}
		key := strings.ToLower(id)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		a := bib.Article{
			DOI:          id,
			Title:        strings.TrimSpace(ref.ArticleTitle),
			Authors:      bib.ParseAuthors(ref.Author),
			Venue:        strings.TrimSpace(ref.JournalTitle),
			AccessedDate: today,
		}
		if year, err := strconv.Atoi(strings.TrimSpace(ref.Year)); err == nil {
			a.Year = year
		}
		if a.Title == "" && ref.Unstructured != "" {
			a.Notes = strings.TrimSpace(ref.Unstructured)
		}
		articles = append(articles, a)
	}
	return articles
}
