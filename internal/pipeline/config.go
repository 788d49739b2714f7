// Package pipeline wires the four harvesting phases into one run: scrape
// the reference section, resolve missing identifiers, enrich from the
// registry, and download open-access PDFs.
package pipeline

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config captures every knob that influences a harvest run. All values
// originate from Viper so runs can be configured via file, env vars, or
// CLI flags.
type Config struct {
	Headless        bool
	UserAgent       string
	NavTimeout      time.Duration
	SettleDelay     time.Duration
	CrawlDelay      time.Duration
	AllowedHosts    []string
	FastPathEnabled bool
	RegistryBaseURL string
	RegistryAgent   string
	OpenAccessEmail string
	DownloadDir     string
	DownloadDelay   time.Duration
	SnapshotDir     string
	Development     bool
}

// LoadConfig constructs a Config by reading from Viper.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		Headless:        v.GetBool("browser.headless"),
		UserAgent:       v.GetString("browser.user_agent"),
		NavTimeout:      v.GetDuration("browser.nav_timeout"),
		SettleDelay:     v.GetDuration("browser.settle_delay"),
		CrawlDelay:      v.GetDuration("harvest.crawl_delay"),
		AllowedHosts:    v.GetStringSlice("harvest.allowed_hosts"),
		FastPathEnabled: v.GetBool("harvest.fast_path"),
		RegistryBaseURL: v.GetString("registry.base_url"),
		RegistryAgent:   v.GetString("registry.user_agent"),
		OpenAccessEmail: v.GetString("openaccess.email"),
		DownloadDir:     v.GetString("download.dir"),
		DownloadDelay:   v.GetDuration("download.delay"),
		SnapshotDir:     v.GetString("debug.snapshot_dir"),
		Development:     v.GetBool("log.development"),
	}
	return cfg, cfg.Validate()
}

// Validate checks for obviously bad configuration combinations.
func (c Config) Validate() error {
	if c.NavTimeout <= 0 {
		return fmt.Errorf("browser.nav_timeout must be > 0")
	}
	if c.CrawlDelay <= 0 {
		return fmt.Errorf("harvest.crawl_delay must be > 0")
	}
	if len(c.AllowedHosts) == 0 {
		return fmt.Errorf("harvest.allowed_hosts must include at least one host")
	}
	if c.DownloadDir == "" {
		return fmt.Errorf("download.dir must be set")
	}
	if c.DownloadDelay < 0 {
		return fmt.Errorf("download.delay must be >= 0")
	}
	return nil
}
