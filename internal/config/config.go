// Package config defines process configuration and its loading hooks.
//
// Conventions:
// - Defaults live in New; Load layers a YAML file and the environment on top.
// - Credentials are only required by the fetch job (see ValidateFetch).
package config

import (
	"time"
)

// Config contains process configuration for both the fetch job and the viewer.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the viewer HTTP listen address, e.g. ":8501".
	Addr string `koanf:"addr"`

	// DataPath is the exported table; written by the fetch job, read by the viewer.
	DataPath string `koanf:"data_path"`

	// UbisoftEmail and UbisoftPassword are the identity credentials.
	UbisoftEmail    string `koanf:"ubisoft_email"`
	UbisoftPassword string `koanf:"ubisoft_password"`

	// AppName identifies this client in the identity User-Agent.
	AppName string `koanf:"app_name"`

	// UbiAppID is sent as the Ubi-AppId header.
	UbiAppID string `koanf:"ubi_app_id"`

	// Base URLs of the identity, core and live services.
	IdentityURL string `koanf:"identity_url"`
	CoreURL     string `koanf:"core_url"`
	LiveURL     string `koanf:"live_url"`

	// Audience selects the token audience on exchange.
	Audience string `koanf:"audience"`

	// CatalogLength and CatalogOffset select the single catalog page fetched.
	CatalogLength int `koanf:"catalog_length"`
	CatalogOffset int `koanf:"catalog_offset"`

	// CatalogStrict fails the run when the catalog has more groups than one page holds.
	CatalogStrict bool `koanf:"catalog_strict"`

	// TopOffset and TenKOffset are the sampled leaderboard rank offsets.
	TopOffset  int `koanf:"top_offset"`
	TenKOffset int `koanf:"tenk_offset"`

	// HTTPTimeoutMS bounds one upstream request; zero keeps the client default.
	HTTPTimeoutMS int `koanf:"http_timeout_ms"`

	// TokenSkewMS refreshes tokens this long before they expire.
	TokenSkewMS int `koanf:"token_skew_ms"`

	// TokenLifetimeMS is assumed when the access token carries no readable expiry.
	TokenLifetimeMS int `koanf:"token_lifetime_ms"`

	// MetricsEnabled turns Prometheus collection on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsNamespace prefixes every metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`

	// MetricsBucketsMS overrides the latency histogram buckets; empty keeps the defaults.
	MetricsBucketsMS []float64 `koanf:"metrics_buckets_ms"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":8501",
		DataPath:        "campaign_data.csv",
		AppName:         "Easiest Campaign AT Investigation",
		UbiAppID:        "86263886-327a-4328-ac69-527f0d20a237",
		IdentityURL:     "https://public-ubiservices.ubi.com",
		CoreURL:         "https://prod.trackmania.core.nadeo.online",
		LiveURL:         "https://live-services.trackmania.nadeo.live",
		Audience:        "NadeoLiveServices",
		CatalogLength:   30,
		CatalogOffset:   0,
		CatalogStrict:   true,
		TopOffset:       0,
		TenKOffset:      9_999,
		HTTPTimeoutMS:   0,
		TokenSkewMS:     60_000,
		TokenLifetimeMS: 3_600_000,

		MetricsEnabled:   true,
		MetricsNamespace: "atdiff",
	}
}

// HTTPTimeout returns the upstream request timeout.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMS) * time.Millisecond
}

// TokenSkew returns the refresh-ahead window.
func (c *Config) TokenSkew() time.Duration {
	return time.Duration(c.TokenSkewMS) * time.Millisecond
}

// TokenLifetime returns the fallback access token lifetime.
func (c *Config) TokenLifetime() time.Duration {
	return time.Duration(c.TokenLifetimeMS) * time.Millisecond
}
