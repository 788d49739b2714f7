package registry

import (
	"context"
	"html"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/litstack/refharvest/internal/bib"
	"github.com/litstack/refharvest/internal/progress"
)

var (
	jatsTag  = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
	spaceRun = regexp.MustCompile(`\s+`)
)

// CleanAbstract strips the registry's JATS markup and unescapes HTML
// entities, leaving plain text.
func CleanAbstract(raw string) string {
	text := jatsTag.ReplaceAllString(raw, " ")
	text = html.UnescapeString(text)
	return strings.TrimSpace(spaceRun.ReplaceAllString(text, " "))
}

// replaceable reports whether a scraped value should yield to registry
// data: empty strings and boilerplate link labels both do.
func replaceable(value string) bool {
	return strings.TrimSpace(value) == "" || bib.IsBoilerplate(value)
}

// Enricher fills article metadata gaps from registry records without ever
// clobbering values a human or an earlier run already settled.
type Enricher struct {
	client *Client
	logger *zap.Logger
}

// NewEnricher builds an Enricher around client.
func NewEnricher(client *Client, logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{client: client, logger: logger}
}

// Enrich looks up each resolved article's registry record and applies it.
// Unresolved and manually edited entries are skipped. Lookup failures are
// contained per article. The return value counts articles that changed.
func (e *Enricher) Enrich(ctx context.Context, articles []bib.Article, report *progress.Reporter) (int, error) {
	total := len(articles)
	report.Emitf(progress.PhaseEnrich, "Phase 3: enriching %d articles from the registry", total)

	changed := 0
	for i := range articles {
		if err := ctx.Err(); err != nil {
			return changed, err
		}
		a := &articles[i]

		switch {
		case a.Unresolved():
			e.logger.Debug("skipping unresolved entry", zap.String("id", a.DOI))
		case a.ManuallyEdited:
			e.logger.Debug("skipping manually edited entry", zap.String("doi", a.DOI))
		default:
			work, err := e.client.Work(ctx, a.DOI)
			if err != nil {
				e.logger.Warn("registry lookup failed", zap.String("doi", a.DOI), zap.Error(err))
				report.Failf(progress.PhaseEnrich, "Phase 3: registry lookup failed for %s", a.DOI)
			} else if Apply(a, work) {
				changed++
			}
		}

		if (i+1)%5 == 0 || i+1 == total {
			report.Countf(progress.PhaseEnrich, i+1, total, "Phase 3: processed %d/%d articles", i+1, total)
		}
	}

	report.Emitf(progress.PhaseEnrich, "Phase 3 done: %d of %d articles updated", changed, total)
	return changed, nil
}

// Apply copies work's metadata into a, field by field, touching only
// fields whose current value is missing or junk. It reports whether
// anything changed.
func Apply(a *bib.Article, work *Work) bool {
	changed := false

	if title := work.BestTitle(); title != "" && replaceable(a.Title) {
		a.Title = title
		changed = true
	}
	if len(a.Authors) == 0 && len(work.Author) > 0 {
		authors := make([]string, 0, len(work.Author))
		for _, author := range work.Author {
			// Entries without a family name are usually consortium noise.
			if strings.TrimSpace(author.Family) == "" {
				continue
			}
			if name := author.FullName(); name != "" {
				authors = append(authors, name)
			}
		}
		if len(authors) > 0 {
			a.Authors = authors
			changed = true
		}
	}
	if a.Year == 0 {
		if year := work.BestYear(); year > 0 {
			a.Year = year
			changed = true
		}
	}
	if venue := work.BestVenue(); venue != "" && replaceable(a.Venue) {
		a.Venue = venue
		changed = true
	}
	if a.Abstract == "" {
		if abstract := CleanAbstract(work.Abstract); abstract != "" {
			a.Abstract = abstract
			changed = true
		}
	}
	if a.PDFURL == "" {
		if link := work.PDFLink(); link != "" {
			a.PDFURL = link
			changed = true
		}
	}
	return changed
}
