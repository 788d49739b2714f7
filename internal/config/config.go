// Package config initializes the application's configuration. It uses
// Viper to merge settings from a config file, environment variables, and
// command-line flags into one view, with a .env file loaded first for
// local development.
package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Init installs defaults, search paths, and env bindings on the global
// Viper. Call once at startup, before any config reads.
func Init(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// A .env file is optional; env vars loaded here are picked up by the
	// AutomaticEnv binding below.
	if err := godotenv.Load(); err == nil {
		logger.Debug("loaded .env file")
	}

	viper.SetConfigName("config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/refharvest/")
	viper.AddConfigPath("$HOME/.refharvest")

	viper.SetDefault("browser.headless", true)
	viper.SetDefault("browser.user_agent", "")
	viper.SetDefault("browser.nav_timeout", "60s")
	viper.SetDefault("browser.settle_delay", "2s")

	viper.SetDefault("harvest.crawl_delay", "10s")
	viper.SetDefault("harvest.fast_path", true)
	viper.SetDefault("harvest.allowed_hosts", []string{
		"ieeexplore.ieee.org",
		"doi.org",
		"dx.doi.org",
		"api.crossref.org",
		"api.semanticscholar.org",
		"scholar.google.com",
		"api.unpaywall.org",
	})

	viper.SetDefault("registry.base_url", "")
	viper.SetDefault("registry.user_agent", "")
	viper.SetDefault("openaccess.email", "")

	viper.SetDefault("download.dir", "data/pdfs")
	viper.SetDefault("download.delay", "2s")

	viper.SetDefault("debug.snapshot_dir", "")
	viper.SetDefault("log.development", false)
	viper.SetDefault("metrics.enabled", false)

	viper.SetEnvPrefix("REFHARVEST") // e.g. REFHARVEST_HARVEST_CRAWL_DELAY=15s
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.Debug("no config file found, using defaults and environment")
		} else {
			logger.Warn("config file unreadable", zap.Error(err))
		}
	} else {
		logger.Info("using config file", zap.String("path", viper.ConfigFileUsed()))
	}
}
