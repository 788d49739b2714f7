// Package registry talks to the public DOI metadata registry: work lookup
// for enrichment and the bibliography listing used by the fast path.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public works API root.
	DefaultBaseURL = "https://api.crossref.org"

	// DefaultTimeout bounds a single API request.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit keeps the client well inside the registry's polite
	// pool limits.
	DefaultRateLimit = 2.0

	// DefaultUserAgent identifies the tool; a mailto lets the registry
	// reach out instead of blocking.
	DefaultUserAgent = "refharvest/1.0 (mailto:ops@litstack.dev)"
)

// ErrNotFound marks a DOI the registry has no record for.
var ErrNotFound = errors.New("registry: work not found")

// Config holds client settings. Zero values fall back to the defaults.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	RateLimit float64
}

// Client is a rate-limited registry API client, safe for concurrent use.
type Client struct {
	base    string
	agent   string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient builds a Client from cfg, applying defaults for unset fields.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	return &Client{
		base:    cfg.BaseURL,
		agent:   cfg.UserAgent,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
	}
}

// envelope is the standard response wrapper around a work message.
type envelope struct {
	Status  string `json:"status"`
	Message Work   `json:"message"`
}

// Work fetches the metadata record for doi. A 404 maps to ErrNotFound so
// callers can distinguish "unknown DOI" from transport failure.
func (c *Client) Work(ctx context.Context, doi string) (*Work, error) {
	if doi == "" {
		return nil, errors.New("registry: empty doi")
	}
	body, err := c.get(ctx, c.base+"/works/"+url.PathEscape(doi))
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("registry: decode work %s: %w", doi, err)
	}
	return &env.Message, nil
}

// References fetches the bibliography the registry holds for doi. The
// listing may be truncated on the registry side; whatever is returned is
// still usable. An empty slice means the deposit carries no references.
func (c *Client) References(ctx context.Context, doi string) ([]Reference, error) {
	work, err := c.Work(ctx, doi)
	if err != nil {
		return nil, err
	}
	return work.Reference, nil
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("registry: rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("registry: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.agent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("registry: unexpected status %d for %s", resp.StatusCode, target)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("registry: read response: %w", err)
	}
	return body, nil
}
