package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/litstack/refharvest/internal/allowlist"
	"github.com/litstack/refharvest/internal/bib"
	"github.com/litstack/refharvest/internal/browser"
	"github.com/litstack/refharvest/internal/doi"
	"github.com/litstack/refharvest/internal/fetchpdf"
	"github.com/litstack/refharvest/internal/openaccess"
	"github.com/litstack/refharvest/internal/progress"
	"github.com/litstack/refharvest/internal/registry"
	"github.com/litstack/refharvest/internal/scrape"
	"github.com/litstack/refharvest/internal/snapshot"
)

// session is the browser surface the pipeline drives; satisfied by
// browser.Session.
type session interface {
	scrape.Navigator
	Close()
}

// Result summarizes one harvest run.
type Result struct {
	RunID      uuid.UUID
	Target     string
	FastPath   bool
	Articles   []bib.Article
	Resolved   int
	Enriched   int
	Downloaded int
}

// Harvester runs the full pipeline against one source article.
type Harvester struct {
	cfg      Config
	logger   *zap.Logger
	report   *progress.Reporter
	registry *registry.Client
	locator  fetchpdf.Locator
	urls     *allowlist.Validator

	// newSession is swappable so tests can run without a browser.
	newSession func(ctx context.Context) (session, error)
}

// New builds a Harvester from cfg. report may be nil when no progress
// consumer is attached.
func New(cfg Config, logger *zap.Logger, report *progress.Reporter) (*Harvester, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &Harvester{
		cfg:    cfg,
		logger: logger,
		report: report,
		registry: registry.NewClient(registry.Config{
			BaseURL:   cfg.RegistryBaseURL,
			UserAgent: cfg.RegistryAgent,
		}),
		locator: openaccess.NewClient(openaccess.Config{Email: cfg.OpenAccessEmail}),
		urls:    allowlist.New(cfg.AllowedHosts),
	}
	h.newSession = func(context.Context) (session, error) {
		return browser.NewSession(browser.Config{
			Headless:    cfg.Headless,
			UserAgent:   cfg.UserAgent,
			NavTimeout:  cfg.NavTimeout,
			SettleDelay: cfg.SettleDelay,
		}, logger)
	}
	return h, nil
}

// Run harvests the references of the article identified by target, which
// is either a DOI (or DOI URL) or a publisher article page URL. When the
// registry already lists the bibliography, the browser never starts;
// otherwise the four scraping phases run in order. A page with no
// reference section yields an empty result, not an error.
func (h *Harvester) Run(ctx context.Context, target string) (*Result, error) {
	res := &Result{RunID: h.report.RunID(), Target: target}
	h.report.Emitf(progress.PhaseRun, "harvest started for %s", target)

	id := doi.Normalize(doi.Extract(target))
	if h.cfg.FastPathEnabled && id != "" {
		if articles, ok := h.fastPath(ctx, id); ok {
			res.FastPath = true
			res.Articles = articles
			h.report.Emitf(progress.PhaseRun, "harvest finished via registry listing: %d references", len(articles))
			return res, nil
		}
	}

	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		if id == "" {
			return nil, fmt.Errorf("target %q is neither an identifier nor a page URL", target)
		}
		// Bare identifier: scrape whatever page the resolver redirects to.
		target = "https://doi.org/" + id
	}
	pageURL, err := h.urls.Validate(target)
	if err != nil {
		return nil, err
	}

	skeletons, err := h.scrapePhases(ctx, pageURL)
	if err != nil {
		if errors.Is(err, scrape.ErrNoReferences) {
			h.report.Emitf(progress.PhaseRun, "harvest finished: page lists no references")
			return res, nil
		}
		return nil, err
	}
	res.Articles = skeletonsToArticles(skeletons)
	for i := range res.Articles {
		if !res.Articles[i].Unresolved() {
			res.Resolved++
		}
	}

	enricher := registry.NewEnricher(h.registry, h.logger)
	enriched, err := enricher.Enrich(ctx, res.Articles, h.report)
	if err != nil {
		return res, err
	}
	res.Enriched = enriched

	downloader, err := fetchpdf.NewDownloader(fetchpdf.Config{
		Dir:       h.cfg.DownloadDir,
		UserAgent: h.cfg.UserAgent,
		Delay:     h.cfg.DownloadDelay,
	}, h.locator, h.logger)
	if err != nil {
		return res, err
	}
	saved, err := downloader.Run(ctx, res.Articles, h.report)
	if err != nil {
		return res, err
	}
	res.Downloaded = saved

	h.report.Emitf(progress.PhaseRun, "harvest finished: %d references, %d resolved, %d enriched, %d downloaded",
		len(res.Articles), res.Resolved, res.Enriched, res.Downloaded)
	return res, nil
}

// fastPath asks the registry for the source article's own bibliography.
// Truncated listings still count; only an error or an empty listing sends
// the run down the browser path.
func (h *Harvester) fastPath(ctx context.Context, id string) ([]bib.Article, bool) {
	h.report.Emitf(progress.PhaseFastPath, "checking registry listing for %s", id)
	refs, err := h.registry.References(ctx, id)
	if err != nil {
		h.logger.Info("registry listing unavailable, falling back to page scrape",
			zap.String("doi", id), zap.Error(err))
		return nil, false
	}
	if len(refs) == 0 {
		h.logger.Info("registry deposit carries no references, falling back to page scrape",
			zap.String("doi", id))
		return nil, false
	}
	h.report.Emitf(progress.PhaseFastPath, "registry lists %d references", len(refs))
	return referencesToArticles(refs), true
}

// scrapePhases runs the browser-bound half of the pipeline and guarantees
// the browser is gone before enrichment and downloads start.
func (h *Harvester) scrapePhases(ctx context.Context, pageURL string) ([]scrape.RefSkeleton, error) {
	sess, err := h.newSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("start browser: %w", err)
	}
	defer sess.Close()

	scrapeCfg := scrape.DefaultConfig()
	scrapeCfg.CrawlDelay = h.cfg.CrawlDelay

	var snapshots *snapshot.Writer
	if h.cfg.SnapshotDir != "" {
		snapshots, err = snapshot.NewWriter(h.cfg.SnapshotDir, h.logger)
		if err != nil {
			h.logger.Warn("debug snapshots disabled", zap.Error(err))
			snapshots = nil
		}
	}

	collector := scrape.NewCollector(scrapeCfg, snapshots, h.logger)
	skeletons, withDOI, err := collector.Collect(ctx, sess, pageURL, h.report)
	if err != nil {
		return nil, err
	}
	h.logger.Info("reference skeletons collected",
		zap.Int("total", len(skeletons)), zap.Int("with_doi", withDOI))

	resolver := scrape.NewResolver(scrapeCfg, h.urls, h.logger)
	if _, err := resolver.Resolve(ctx, sess, skeletons, h.report); err != nil {
		return nil, err
	}
	return skeletons, nil
}
