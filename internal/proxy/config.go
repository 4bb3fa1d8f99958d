package proxy

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the proxy settings. All fields can be overridden through
// CACHEPROXY_* environment variables.
type Config struct {
	// ListenAddr is the address the proxy serves on.
	ListenAddr string `envconfig:"LISTEN_ADDR"`

	// AppOrigin hosts the application shell and its static assets.
	AppOrigin string `envconfig:"APP_ORIGIN"`

	// APIOrigin is the story API; API traffic is recognized by APIPrefix.
	APIOrigin string `envconfig:"API_ORIGIN"`
	APIPrefix string `envconfig:"API_PREFIX"`

	// CDNOrigin serves third-party static assets under CDNPrefix.
	CDNOrigin string `envconfig:"CDN_ORIGIN"`
	CDNPrefix string `envconfig:"CDN_PREFIX"`

	// ShellPaths is the fixed set of app-shell documents precached on
	// Install.
	ShellPaths []string `envconfig:"SHELL_PATHS"`

	// CacheVersion stamps the cache generation; bumping it retires the
	// previous generation on Activate.
	CacheVersion int `envconfig:"CACHE_VERSION"`

	// APITimeout bounds each upstream API request before the proxy falls
	// back to the cache or a synthesized offline response.
	APITimeout time.Duration `envconfig:"API_TIMEOUT"`

	// APICacheTTL is the freshness window of cached API responses.
	APICacheTTL time.Duration `envconfig:"API_CACHE_TTL"`

	// ProbeInterval is how often the proxy checks upstream reachability.
	ProbeInterval time.Duration `envconfig:"PROBE_INTERVAL"`

	// MaxCacheEntries caps each named cache.
	MaxCacheEntries int `envconfig:"MAX_CACHE_ENTRIES"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ListenAddr = ":8090"
	c.AppOrigin = "http://localhost:3000"
	c.APIOrigin = "https://story-api.dicoding.dev"
	c.APIPrefix = "/v1/"
	c.CDNOrigin = "https://cdn.jsdelivr.net"
	c.CDNPrefix = "/static/"
	c.ShellPaths = []string{"/", "/index.html", "/app.js", "/app.css", "/manifest.json", "/favicon.png"}
	c.CacheVersion = 1
	c.APITimeout = 10 * time.Second
	c.APICacheTTL = time.Hour
	c.ProbeInterval = 5 * time.Second
	c.MaxCacheEntries = 512
}

// LoadConfig builds a Config from defaults overlaid with CACHEPROXY_*
// environment variables.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := envconfig.Process("cacheproxy", cfg); err != nil {
		panic(err)
	}
	return cfg
}
