package pipeline

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func validViper() *viper.Viper {
	v := viper.New()
	v.Set("browser.nav_timeout", "30s")
	v.Set("harvest.crawl_delay", "10s")
	v.Set("harvest.allowed_hosts", []string{"ieeexplore.ieee.org", "doi.org"})
	v.Set("download.dir", "pdfs")
	return v
}

func TestLoadConfig(t *testing.T) {
	v := validViper()
	v.Set("harvest.fast_path", true)
	v.Set("browser.headless", true)

	cfg, err := LoadConfig(v)
	require.NoError(t, err)
	require.True(t, cfg.FastPathEnabled)
	require.True(t, cfg.Headless)
	require.Equal(t, 30*time.Second, cfg.NavTimeout)
	require.Equal(t, 10*time.Second, cfg.CrawlDelay)
}

func TestLoadConfigRejectsMissingDelay(t *testing.T) {
	v := validViper()
	v.Set("harvest.crawl_delay", "0s")
	_, err := LoadConfig(v)
	require.Error(t, err)
}

func TestLoadConfigRejectsEmptyAllowlist(t *testing.T) {
	v := validViper()
	v.Set("harvest.allowed_hosts", []string{})
	_, err := LoadConfig(v)
	require.Error(t, err)
}

func TestLoadConfigRejectsMissingDownloadDir(t *testing.T) {
	v := validViper()
	v.Set("download.dir", "")
	_, err := LoadConfig(v)
	require.Error(t, err)
}
