package scrape

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/litstack/refharvest/internal/progress"
	"github.com/litstack/refharvest/internal/snapshot"
)

// Collector scrapes a source page's reference section into skeletons.
type Collector struct {
	cfg       Config
	snapshots *snapshot.Writer
	logger    *zap.Logger
}

// NewCollector builds a Collector. snapshots may be nil to disable debug
// captures.
func NewCollector(cfg Config, snapshots *snapshot.Writer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{cfg: cfg, snapshots: snapshots, logger: logger}
}

// Collect navigates to pageURL on nav, reveals the references section, and
// extracts one skeleton per reference element. The second return value
// counts skeletons that already carry a DOI. ErrNoReferences is returned
// only when the selectors and the whole-page fallback all come up empty.
func (c *Collector) Collect(ctx context.Context, nav Navigator, pageURL string, report *progress.Reporter) ([]RefSkeleton, int, error) {
	report.Emitf(progress.PhaseCollect, "Phase 1: loading %s", pageURL)
	if err := nav.Navigate(ctx, pageURL); err != nil {
		return nil, 0, fmt.Errorf("navigate %s: %w", pageURL, err)
	}

	if !nav.ClickFirst(ctx, c.cfg.RevealSelectors...) {
		c.logger.Debug("references section not behind a tab", zap.String("url", pageURL))
	}

	html, err := nav.HTML(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("read page html: %w", err)
	}
	c.snapshots.Save(pageURL, []byte(html))

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, 0, fmt.Errorf("parse page html: %w", err)
	}

	elements := firstNonEmpty(doc, c.cfg.ItemSelectors)
	if elements == nil {
		return c.collectFromPageText(ctx, nav, report)
	}

	junk := c.cfg.junkSet()
	total := elements.Length()
	skeletons := make([]RefSkeleton, 0, total)
	withDOI := 0
	elements.Each(func(i int, sel *goquery.Selection) {
		skel := parseElement(i, sel, c.cfg, junk)
		if skel.DOI != "" {
			withDOI++
		}
		skeletons = append(skeletons, skel)
		if (i+1)%5 == 0 || i+1 == total {
			report.Countf(progress.PhaseCollect, i+1, total, "Phase 1: scanned %d/%d references", i+1, total)
		}
	})

	report.Emitf(progress.PhaseCollect, "Phase 1 done: %d references, %d with inline DOI", len(skeletons), withDOI)
	return skeletons, withDOI, nil
}

// collectFromPageText is the last-resort strategy: scan the whole page
// text for identifier tokens and emit one bare skeleton per unique token.
func (c *Collector) collectFromPageText(ctx context.Context, nav Navigator, report *progress.Reporter) ([]RefSkeleton, int, error) {
	report.Emitf(progress.PhaseCollect, "Phase 1: no reference elements matched, scanning page text")

	text, err := nav.BodyText(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("read page text: %w", err)
	}

	ids := uniqueDOIs(text)
	if len(ids) == 0 {
		return nil, 0, ErrNoReferences
	}

	skeletons := make([]RefSkeleton, 0, len(ids))
	for i, id := range ids {
		skeletons = append(skeletons, RefSkeleton{Index: i, DOI: id})
	}
	report.Emitf(progress.PhaseCollect, "Phase 1 done: %d identifiers found in page text", len(skeletons))
	return skeletons, len(skeletons), nil
}
