// Package snapshot writes rendered-page HTML to a debug directory so
// failed scrapes can be diagnosed offline.
package snapshot

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var invalidSlugChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Writer saves HTML snapshots under a fixed debug directory. A nil Writer
// is valid and drops every snapshot, so diagnostics stay optional.
type Writer struct {
	root   string
	logger *zap.Logger
}

// NewWriter creates the debug directory and returns a Writer rooted there.
func NewWriter(root string, logger *zap.Logger) (*Writer, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create snapshot dir %s: %w", root, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{root: root, logger: logger}, nil
}

// Save writes the HTML under a slug derived from the page URL and returns
// the path. Failures are logged, not returned: a missing snapshot must
// never fail a harvest.
func (w *Writer) Save(pageURL string, html []byte) string {
	if w == nil || len(html) == 0 {
		return ""
	}
	target := filepath.Join(w.root, slug(pageURL)+".html")
	if err := os.WriteFile(target, html, 0o600); err != nil {
		w.logger.Warn("snapshot write failed", zap.String("url", pageURL), zap.Error(err))
		return ""
	}
	return target
}

// slug builds a filesystem-safe name from a URL: host, path, and a short
// hash to keep distinct URLs from colliding.
func slug(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return hashURL(raw)
	}
	host := invalidSlugChars.ReplaceAllString(u.Hostname(), "_")
	p := strings.Trim(u.EscapedPath(), "/")
	if p == "" {
		p = "root"
	}
	p = invalidSlugChars.ReplaceAllString(p, "_")
	return fmt.Sprintf("%s_%s_%s", host, p, hashURL(raw)[:12])
}

func hashURL(raw string) string {
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}
