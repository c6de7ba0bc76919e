package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for one sync run. It is built once at
// startup and passed into constructors; nothing mutates it afterwards.
type Config struct {
	// Filesystem layout
	DataDir       string `mapstructure:"data_dir"`
	ListCachePath string `mapstructure:"list_cache_path"`

	// Downloader policy
	Concurrency       int   `mapstructure:"concurrency"`
	DataExpirySeconds int   `mapstructure:"data_expiry_seconds"`
	MinArtifactBytes  int64 `mapstructure:"min_artifact_bytes"`
	MaxRetries        int   `mapstructure:"max_retries"`

	// Fetch policy
	HistoryRange        string `mapstructure:"history_range"`
	FetchTimeoutSeconds int    `mapstructure:"fetch_timeout_seconds"`

	// Endpoints (configurable for testing)
	ChartBaseURL   string `mapstructure:"chart_base_url"`
	ListingBaseURL string `mapstructure:"listing_base_url"`
	ResendBaseURL  string `mapstructure:"resend_base_url"`

	// Listing policy
	ListingThreshold int `mapstructure:"listing_threshold"`

	// Reporting
	MarketName   string `mapstructure:"market_name"`
	ResendAPIKey string `mapstructure:"resend_api_key"`
	ReportFrom   string `mapstructure:"report_from"`
	ReportTo     string `mapstructure:"report_to"` // comma-separated

	LogLevel string `mapstructure:"log_level"`
}

// Load reads configuration from environment variables and an optional
// config file. Environment variables take precedence over config file
// values.
//
// Expected environment variables (all optional):
//   - DATA_DIR, LIST_CACHE_PATH
//   - CONCURRENCY, DATA_EXPIRY_SECONDS, MIN_ARTIFACT_BYTES, MAX_RETRIES
//   - HISTORY_RANGE, FETCH_TIMEOUT_SECONDS
//   - CHART_BASE_URL, LISTING_BASE_URL, RESEND_BASE_URL, LISTING_THRESHOLD
//   - MARKET_NAME, RESEND_API_KEY, REPORT_FROM, REPORT_TO, LOG_LEVEL
func Load() (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("") // No prefix, use full names
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data_dir", "data/cn-share/dayK")
	v.SetDefault("list_cache_path", "data/cn-share/lists/cn_stock_list_cache.json")
	v.SetDefault("concurrency", 4)
	v.SetDefault("data_expiry_seconds", 3600)
	v.SetDefault("min_artifact_bytes", 1000)
	v.SetDefault("max_retries", 3)
	v.SetDefault("history_range", "2y")
	v.SetDefault("fetch_timeout_seconds", 25)
	v.SetDefault("chart_base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("listing_base_url", "https://push2.eastmoney.com")
	v.SetDefault("resend_base_url", "https://api.resend.com")
	v.SetDefault("listing_threshold", 4500)
	v.SetDefault("market_name", "CN A-Share")
	v.SetDefault("report_from", "StockSync <onboarding@resend.dev>")
	v.SetDefault("log_level", "info")

	// Optionally read from config file if it exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.stocksync")

	// Read config file (ignore if not found)
	_ = v.ReadInConfig()

	// Bind environment variables
	v.BindEnv("data_dir", "DATA_DIR")
	v.BindEnv("list_cache_path", "LIST_CACHE_PATH")
	v.BindEnv("concurrency", "CONCURRENCY")
	v.BindEnv("data_expiry_seconds", "DATA_EXPIRY_SECONDS")
	v.BindEnv("min_artifact_bytes", "MIN_ARTIFACT_BYTES")
	v.BindEnv("max_retries", "MAX_RETRIES")
	v.BindEnv("history_range", "HISTORY_RANGE")
	v.BindEnv("fetch_timeout_seconds", "FETCH_TIMEOUT_SECONDS")
	v.BindEnv("chart_base_url", "CHART_BASE_URL")
	v.BindEnv("listing_base_url", "LISTING_BASE_URL")
	v.BindEnv("resend_base_url", "RESEND_BASE_URL")
	v.BindEnv("listing_threshold", "LISTING_THRESHOLD")
	v.BindEnv("market_name", "MARKET_NAME")
	v.BindEnv("resend_api_key", "RESEND_API_KEY")
	v.BindEnv("report_from", "REPORT_FROM")
	v.BindEnv("report_to", "REPORT_TO")
	v.BindEnv("log_level", "LOG_LEVEL")

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Reporting is optional, but a recipient list without a key is a
	// misconfiguration rather than a silent skip.
	if config.ReportTo != "" && config.ResendAPIKey == "" {
		return nil, fmt.Errorf("REPORT_TO is set but RESEND_API_KEY is missing")
	}

	return config, nil
}

// DataExpiry returns the artifact freshness threshold as a duration.
func (c *Config) DataExpiry() time.Duration {
	return time.Duration(c.DataExpirySeconds) * time.Second
}

// FetchTimeout returns the per-request timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// Recipients splits the comma-separated REPORT_TO list.
func (c *Config) Recipients() []string {
	if c.ReportTo == "" {
		return nil
	}
	parts := strings.Split(c.ReportTo, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ReportEnabled reports whether a report email should be sent at all.
func (c *Config) ReportEnabled() bool {
	return c.ResendAPIKey != "" && len(c.Recipients()) > 0
}
