package scrape

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/litstack/refharvest/internal/allowlist"
	"github.com/litstack/refharvest/internal/doi"
	"github.com/litstack/refharvest/internal/progress"
)

// doiLabel matches the explicit "DOI: 10.xxxx/yyy" form publishers print
// near the article head.
var doiLabel = regexp.MustCompile(`(?i)DOI:\s*([^\s<>"]+)`)

// citation meta tag names checked on publisher pages, in order.
var citationMetaNames = []string{"citation_doi", "dc.identifier", "dc.Identifier", "DC.identifier"}

// Resolver visits each skeleton's outbound links to recover a DOI for
// entries whose reference markup did not carry one inline.
type Resolver struct {
	cfg    Config
	urls   *allowlist.Validator
	pause  pauser
	logger *zap.Logger
}

// NewResolver builds a Resolver. urls guards every navigation; a nil
// validator would permit nothing, so it is required.
func NewResolver(cfg Config, urls *allowlist.Validator, logger *zap.Logger) *Resolver {
	if cfg.CrawlDelay <= 0 {
		cfg.CrawlDelay = DefaultCrawlDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{cfg: cfg, urls: urls, pause: timerPauser{}, logger: logger}
}

// Resolve fills in skeleton DOIs in place, trying each entry's registry,
// publisher, and search-engine links in turn. Every skeleton that needed a
// visit is followed by the configured crawl delay regardless of outcome.
// The return value counts newly resolved entries.
func (r *Resolver) Resolve(ctx context.Context, nav Navigator, skeletons []RefSkeleton, report *progress.Reporter) (int, error) {
	pending := 0
	for i := range skeletons {
		if skeletons[i].DOI == "" {
			pending++
		}
	}
	if pending == 0 {
		report.Emitf(progress.PhaseResolve, "Phase 2: all references already carry identifiers, nothing to resolve")
		return 0, nil
	}
	report.Emitf(progress.PhaseResolve, "Phase 2: resolving %d references without identifiers", pending)

	resolved := 0
	seen := 0
	for i := range skeletons {
		if err := ctx.Err(); err != nil {
			return resolved, err
		}
		if skeletons[i].DOI != "" {
			continue
		}
		seen++

		id := r.resolveOne(ctx, nav, &skeletons[i])
		if id != "" {
			skeletons[i].DOI = id
			resolved++
			report.Countf(progress.PhaseResolve, seen, pending, "Phase 2: [ok] reference %d resolved to %s (%d/%d)", skeletons[i].Index+1, id, seen, pending)
		} else {
			report.Countf(progress.PhaseResolve, seen, pending, "Phase 2: [miss] reference %d unresolved (%d/%d)", skeletons[i].Index+1, seen, pending)
		}

		r.pause.Pause(ctx, r.cfg.CrawlDelay)
	}

	report.Emitf(progress.PhaseResolve, "Phase 2 done: %d of %d resolved", resolved, pending)
	return resolved, nil
}

// resolveOne runs the per-reference source cascade and returns the first
// identifier found, or "".
func (r *Resolver) resolveOne(ctx context.Context, nav Navigator, skel *RefSkeleton) string {
	if id := r.fromRegistry(ctx, nav, skel); id != "" {
		return id
	}
	if id := r.fromPublisher(ctx, nav, skel); id != "" {
		return id
	}
	return r.fromScholar(ctx, nav, skel)
}

// fromRegistry follows the registry redirect link; the identifier usually
// lands in the final URL, occasionally only in the page body.
func (r *Resolver) fromRegistry(ctx context.Context, nav Navigator, skel *RefSkeleton) string {
	if skel.RegistryURL == "" {
		return ""
	}
	if !r.visit(ctx, nav, skel.RegistryURL, skel.Index) {
		return ""
	}
	if loc, err := nav.Location(ctx); err == nil {
		if id := doi.Extract(loc); id != "" {
			return doi.Normalize(id)
		}
	}
	return r.fromBodyText(ctx, nav)
}

// fromPublisher loads the publisher's article page and checks, in order,
// the printed DOI label, the citation meta tags, and doi.org anchors.
func (r *Resolver) fromPublisher(ctx context.Context, nav Navigator, skel *RefSkeleton) string {
	if skel.PublisherURL == "" {
		return ""
	}
	if !r.visit(ctx, nav, skel.PublisherURL, skel.Index) {
		return ""
	}

	html, err := nav.HTML(ctx)
	if err != nil {
		r.logger.Debug("publisher page read failed", zap.Int("reference", skel.Index), zap.Error(err))
		return ""
	}

	if m := doiLabel.FindStringSubmatch(html); m != nil {
		if id := doi.Extract(m[1]); id != "" {
			return doi.Normalize(id)
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	for _, name := range citationMetaNames {
		content, ok := doc.Find(`meta[name="` + name + `"]`).Attr("content")
		if !ok {
			continue
		}
		if id := doi.Extract(content); id != "" {
			return doi.Normalize(id)
		}
	}

	var found string
	doc.Find(`a[href*="doi.org/"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if id := doi.Extract(href); id != "" {
			found = doi.Normalize(id)
			return false
		}
		return true
	})
	return found
}

// fromScholar scans the search-engine result page text for an identifier
// token. Scholar rarely exposes one, so this is the weakest source.
func (r *Resolver) fromScholar(ctx context.Context, nav Navigator, skel *RefSkeleton) string {
	if skel.ScholarURL == "" {
		return ""
	}
	if !r.visit(ctx, nav, skel.ScholarURL, skel.Index) {
		return ""
	}
	return r.fromBodyText(ctx, nav)
}

func (r *Resolver) fromBodyText(ctx context.Context, nav Navigator) string {
	text, err := nav.BodyText(ctx)
	if err != nil {
		return ""
	}
	if id := doi.Extract(text); id != "" {
		return doi.Normalize(id)
	}
	return ""
}

// visit validates rawURL against the allowlist and navigates to it.
// Failed validation or navigation downgrades to a debug log; the cascade
// simply moves on to the next source.
func (r *Resolver) visit(ctx context.Context, nav Navigator, rawURL string, index int) bool {
	target, err := r.urls.Validate(rawURL)
	if err != nil {
		if errors.Is(err, allowlist.ErrDisallowedURL) {
			r.logger.Warn("skipping disallowed link", zap.Int("reference", index), zap.String("url", rawURL))
		} else {
			r.logger.Debug("unusable link", zap.Int("reference", index), zap.String("url", rawURL), zap.Error(err))
		}
		return false
	}
	if err := nav.Navigate(ctx, target); err != nil {
		r.logger.Debug("source navigation failed", zap.Int("reference", index), zap.String("url", target), zap.Error(err))
		return false
	}
	return true
}
