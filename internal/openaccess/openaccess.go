// Package openaccess queries the open-access location index for legally
// downloadable full-text PDFs.
package openaccess

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
	// DefaultBaseURL is the public lookup API root.
	DefaultBaseURL = "https://api.unpaywall.org/v2"

	// DefaultEmail satisfies the API's identification requirement when no
	// contact is configured.
	DefaultEmail = "ops@litstack.dev"

	// DefaultTimeout bounds a single lookup.
	DefaultTimeout = 20 * time.Second

	// DefaultRateLimit stays far below the service's daily quota.
	DefaultRateLimit = 5.0
)

// ErrNoOpenAccess marks a DOI with no known open-access copy. It covers
// both "record not found" and "record found, no free location".
var ErrNoOpenAccess = errors.New("openaccess: no free copy known")

// Config holds client settings. Zero values fall back to the defaults.
type Config struct {
	BaseURL   string
	Email     string
	Timeout   time.Duration
	RateLimit float64
}

// Client is a rate-limited open-access index client.
type Client struct {
	base    string
	email   string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient builds a Client from cfg, applying defaults for unset fields.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Email == "" {
		cfg.Email = DefaultEmail
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	return &Client{
		base:    cfg.BaseURL,
		email:   cfg.Email,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
	}
}

type record struct {
	BestLocation *location  `json:"best_oa_location"`
	Locations    []location `json:"oa_locations"`
}

type location struct {
	PDFURL  string `json:"url_for_pdf"`
	PageURL string `json:"url"`
}

// BestPDFURL returns the best known direct PDF link for doi, falling back
// to any listed location with a PDF. ErrNoOpenAccess means the article has
// no free copy; anything else is a transport or decoding failure.
func (c *Client) BestPDFURL(ctx context.Context, doi string) (string, error) {
	if doi == "" {
		return "", errors.New("openaccess: empty doi")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("openaccess: rate limit wait: %w", err)
	}

	target := c.base + "/" + url.PathEscape(doi) + "?email=" + url.QueryEscape(c.email)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("openaccess: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("openaccess: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", ErrNoOpenAccess
	case resp.StatusCode != http.StatusOK:
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("openaccess: unexpected status %d for %s", resp.StatusCode, doi)
	}

	var rec record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return "", fmt.Errorf("openaccess: decode record for %s: %w", doi, err)
	}

	if rec.BestLocation != nil && rec.BestLocation.PDFURL != "" {
		return rec.BestLocation.PDFURL, nil
	}
	for _, loc := range rec.Locations {
		if loc.PDFURL != "" {
			return loc.PDFURL, nil
		}
	}
	return "", ErrNoOpenAccess
}
