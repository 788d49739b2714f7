// Package allowlist validates navigation targets against a fixed set of
// approved hosts before any browser or HTTP request is issued.
package allowlist

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrDisallowedURL marks a source URL rejected by the validator. Rejection
// is fatal for the current source; there is no retry path.
var ErrDisallowedURL = errors.New("url not allowed")

// DefaultHosts covers every external site the pipeline is permitted to
// touch: the publisher, the DOI resolver, the registry and open-access
// APIs, and the scholarly search engine used as a last-resort hop.
var DefaultHosts = []string{
	"ieeexplore.ieee.org",
	"doi.org",
	"dx.doi.org",
	"api.crossref.org",
	"api.semanticscholar.org",
	"scholar.google.com",
	"api.unpaywall.org",
}

// Validator checks URLs against an immutable host allowlist. A host is
// accepted when it equals an entry or is a subdomain of one.
type Validator struct {
	hosts []string
}

// New builds a Validator for the given hosts. Entries are lowercased;
// empty entries are dropped. Passing no hosts yields a validator that
// rejects everything.
func New(hosts []string) *Validator {
	cleaned := make([]string, 0, len(hosts))
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			cleaned = append(cleaned, h)
		}
	}
	return &Validator{hosts: cleaned}
}

// Validate parses raw and returns it unchanged when the scheme is http or
// https and the host is on the allowlist. Any other input fails with an
// error wrapping ErrDisallowedURL.
func (v *Validator) Validate(raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: parse %q: %w", ErrDisallowedURL, raw, err)
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("%w: scheme %q", ErrDisallowedURL, parsed.Scheme)
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return "", fmt.Errorf("%w: missing host in %q", ErrDisallowedURL, raw)
	}
	for _, allowed := range v.hosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return raw, nil
		}
	}
	return "", fmt.Errorf("%w: host %q", ErrDisallowedURL, host)
}
