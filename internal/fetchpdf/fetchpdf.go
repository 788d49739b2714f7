// Package fetchpdf downloads open-access full texts for resolved articles
// and stores them under identifier-derived filenames.
package fetchpdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	ledongpdf "github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/litstack/refharvest/internal/bib"
	"github.com/litstack/refharvest/internal/doi"
	"github.com/litstack/refharvest/internal/progress"
)

// Locator finds a direct PDF link for a DOI when the article record does
// not already carry one.
type Locator interface {
	BestPDFURL(ctx context.Context, doi string) (string, error)
}

// Config holds downloader settings.
type Config struct {
	// Dir is the directory PDFs are written into.
	Dir string
	// UserAgent is sent with every download request.
	UserAgent string
	// Timeout bounds a single download.
	Timeout time.Duration
	// Delay separates consecutive downloads.
	Delay time.Duration
}

// Downloader fetches one PDF per article, sequentially. Failures are
// contained per article; the batch always runs to the end.
type Downloader struct {
	cfg     Config
	base    *colly.Collector
	locator Locator
	logger  *zap.Logger
	sleep   func(ctx context.Context, d time.Duration)
}

// NewDownloader builds a Downloader. locator may be nil to skip the
// open-access lookup for articles without a known link.
func NewDownloader(cfg Config, locator Locator, logger *zap.Logger) (*Downloader, error) {
	if cfg.Dir == "" {
		return nil, errors.New("fetchpdf: download directory required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []colly.CollectorOption{colly.IgnoreRobotsTxt()}
	if cfg.UserAgent != "" {
		opts = append(opts, colly.UserAgent(cfg.UserAgent))
	}
	base := colly.NewCollector(opts...)
	base.AllowURLRevisit = true
	base.SetRequestTimeout(cfg.Timeout)

	return &Downloader{
		cfg:     cfg,
		base:    base,
		locator: locator,
		logger:  logger,
		sleep:   sleepCtx,
	}, nil
}

// Run attempts a download for every resolved article that has or can get a
// PDF link, filling LocalPath and AccessedDate on success. It returns the
// number of files written.
func (d *Downloader) Run(ctx context.Context, articles []bib.Article, report *progress.Reporter) (int, error) {
	if err := os.MkdirAll(d.cfg.Dir, 0o750); err != nil {
		return 0, fmt.Errorf("fetchpdf: create %s: %w", d.cfg.Dir, err)
	}

	candidates := 0
	for i := range articles {
		if !articles[i].Unresolved() {
			candidates++
		}
	}
	report.Emitf(progress.PhaseDownload, "Phase 4: checking %d articles for downloadable PDFs", candidates)

	saved := 0
	seen := 0
	for i := range articles {
		if err := ctx.Err(); err != nil {
			return saved, err
		}
		a := &articles[i]
		if a.Unresolved() {
			continue
		}
		seen++
		if a.LocalPath != "" {
			// Already on disk from an earlier run.
			continue
		}

		if err := d.downloadOne(ctx, a); err != nil {
			if errors.Is(err, errNoLink) {
				d.logger.Debug("no pdf link", zap.String("doi", a.DOI))
			} else {
				d.logger.Warn("download failed", zap.String("doi", a.DOI), zap.Error(err))
				report.Failf(progress.PhaseDownload, "Phase 4: download failed for %s", a.DOI)
			}
		} else {
			saved++
		}
		// A failed request still counts against the remote host; space
		// every attempt, not just the successful ones.
		d.sleep(ctx, d.cfg.Delay)

		if seen%3 == 0 || seen == candidates {
			report.Countf(progress.PhaseDownload, seen, candidates, "Phase 4: processed %d/%d articles, %d saved", seen, candidates, saved)
		}
	}

	report.Emitf(progress.PhaseDownload, "Phase 4 done: %d PDFs saved to %s", saved, d.cfg.Dir)
	return saved, nil
}

var errNoLink = errors.New("no pdf link available")

func (d *Downloader) downloadOne(ctx context.Context, a *bib.Article) error {
	link := a.PDFURL
	if link == "" && d.locator != nil {
		found, err := d.locator.BestPDFURL(ctx, a.DOI)
		if err != nil {
			return fmt.Errorf("%w: %w", errNoLink, err)
		}
		a.PDFURL = found
		link = found
	}
	if link == "" {
		return errNoLink
	}

	// No host allowlist here: open-access copies live on arbitrary
	// institutional repositories, and the links come from the registry
	// and the open-access index rather than from page content.
	body, contentType, err := d.fetch(ctx, link)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return errors.New("empty response body")
	}

	name := doi.SafeFilename(a.DOI) + extensionFor(contentType, body)
	path := filepath.Join(d.cfg.Dir, name)
	if err := os.WriteFile(path, body, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	if strings.HasSuffix(name, ".pdf") {
		if err := verifyPDF(path); err != nil {
			d.logger.Warn("saved file failed pdf check", zap.String("path", path), zap.Error(err))
		}
	}

	a.LocalPath = path
	a.AccessedDate = time.Now().UTC()
	return nil
}

// fetch retrieves link's body on a fresh collector clone so per-request
// handlers never leak between downloads.
func (d *Downloader) fetch(ctx context.Context, link string) ([]byte, string, error) {
	collector := d.base.Clone()

	var (
		once        sync.Once
		body        []byte
		contentType string
		fetchErr    error
	)
	collector.OnResponse(func(r *colly.Response) {
		once.Do(func() {
			body = append([]byte{}, r.Body...)
			if r.Headers != nil {
				contentType = r.Headers.Get("Content-Type")
			}
		})
	})
	collector.OnError(func(r *colly.Response, err error) {
		once.Do(func() {
			if r != nil && r.StatusCode > 0 {
				fetchErr = fmt.Errorf("status %d: %w", r.StatusCode, err)
			} else {
				fetchErr = err
			}
		})
	})

	if err := collector.Visit(link); err != nil {
		return nil, "", err
	}
	collector.Wait()

	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	if fetchErr != nil {
		return nil, "", fetchErr
	}
	return body, contentType, nil
}

var pdfMagic = []byte("%PDF-")

// extensionFor picks .pdf when either the content type or the leading
// bytes say so, .bin otherwise so nothing masquerades as a PDF.
func extensionFor(contentType string, body []byte) string {
	if strings.Contains(strings.ToLower(contentType), "application/pdf") {
		return ".pdf"
	}
	if bytes.HasPrefix(body, pdfMagic) {
		return ".pdf"
	}
	return ".bin"
}

// verifyPDF opens the saved file with a real PDF reader to catch HTML
// error pages served with a PDF content type.
func verifyPDF(path string) error {
	f, reader, err := ledongpdf.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if reader.NumPage() < 1 {
		return errors.New("no pages")
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
