// Package browser owns the headless Chrome session used by the scraping
// phases. One Session maps to one browser process with a single dedicated
// page; navigations are reused across it rather than spawning new tabs.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Config controls the browser session.
type Config struct {
	Headless    bool
	UserAgent   string
	NavTimeout  time.Duration
	ClickWait   time.Duration
	SettleDelay time.Duration
}

const (
	defaultNavTimeout  = 60 * time.Second
	defaultClickWait   = 5 * time.Second
	defaultSettleDelay = 2 * time.Second
	defaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"
)

// Session wraps a chromedp allocator, browser, and one page context. Close
// must be called on every exit path so no automation process is orphaned.
type Session struct {
	cfg           Config
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	pageCtx       context.Context
	pageCancel    context.CancelFunc
	logger        *zap.Logger
}

// NewSession launches the browser and warms up a page. The returned
// Session is ready for navigation.
func NewSession(cfg Config, logger *zap.Logger) (*Session, error) {
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = defaultNavTimeout
	}
	if cfg.ClickWait <= 0 {
		cfg.ClickWait = defaultClickWait
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = defaultSettleDelay
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.UserAgent(cfg.UserAgent),
		chromedp.WindowSize(1920, 1080),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	pageCtx, pageCancel := chromedp.NewContext(browserCtx)
	if err := chromedp.Run(pageCtx); err != nil {
		pageCancel()
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("browser warmup: %w", err)
	}

	return &Session{
		cfg:           cfg,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		pageCtx:       pageCtx,
		pageCancel:    pageCancel,
		logger:        logger,
	}, nil
}

// Close tears down the page, browser, and allocator contexts. Safe to call
// more than once and on a nil Session.
func (s *Session) Close() {
	if s == nil {
		return
	}
	s.pageCancel()
	s.browserCancel()
	s.allocCancel()
}

// Navigate loads url on the session page and waits for the document body
// plus a settle delay for late-rendered content. The wait approximates
// network idle; chromedp exposes no first-class signal for it.
func (s *Session) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, s.cfg.NavTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(s.cfg.SettleDelay),
	)
}

// ClickFirst tries each selector in order and clicks the first one that
// becomes visible within the per-selector wait. Returns true after a
// successful click; individual selector failures are expected and skipped.
func (s *Session) ClickFirst(ctx context.Context, selectors ...string) bool {
	for _, sel := range selectors {
		err := s.run(ctx, s.cfg.ClickWait,
			chromedp.WaitVisible(sel, chromedp.ByQuery),
			chromedp.Click(sel, chromedp.ByQuery),
		)
		if err == nil {
			if err := s.run(ctx, s.cfg.SettleDelay+time.Second, chromedp.Sleep(s.cfg.SettleDelay)); err != nil {
				s.logger.Debug("post-click settle interrupted", zap.Error(err))
			}
			return true
		}
		s.logger.Debug("selector not clickable", zap.String("selector", sel), zap.Error(err))
	}
	return false
}

// BodyText returns the visible text of the page body.
func (s *Session) BodyText(ctx context.Context) (string, error) {
	var text string
	err := s.run(ctx, s.cfg.NavTimeout, chromedp.Text("body", &text, chromedp.ByQuery))
	if err != nil {
		return "", fmt.Errorf("body text: %w", err)
	}
	return text, nil
}

// HTML returns the rendered document markup.
func (s *Session) HTML(ctx context.Context) (string, error) {
	var html string
	err := s.run(ctx, s.cfg.NavTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	if err != nil {
		return "", fmt.Errorf("outer html: %w", err)
	}
	return html, nil
}

// Location returns the page's current URL, which may differ from the
// navigated one after redirects.
func (s *Session) Location(ctx context.Context) (string, error) {
	var loc string
	if err := s.run(ctx, s.cfg.ClickWait, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("location: %w", err)
	}
	return loc, nil
}

// run executes actions on the session page under a timeout, honoring the
// caller's context cancellation.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	taskCtx, cancel := context.WithTimeout(s.pageCtx, timeout)
	defer cancel()

	stop := forwardCancel(ctx, cancel)
	defer stop()

	return chromedp.Run(taskCtx, actions...)
}

// forwardCancel propagates cancellation of parent onto cancel until the
// returned stop function is called.
func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
