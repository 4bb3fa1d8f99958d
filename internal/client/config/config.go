package config

import "time"

// Config holds runtime settings for the StoryKeeper client.
//
// Fields:
//   - APIBaseURL: base URL of the remote story API.
//   - DataDir: directory for the local database; empty means a
//     .storykeeper subdirectory under the user's home.
//   - OnlineCheckInterval: how often the client probes API reachability.
//   - SyncTimeout: upper bound for one draft replay during a drain.
//   - CacheTTL: freshness window for the cached story list.
//   - MaxDraftAttempts: rejected replays before a draft is parked.
//   - PageSize: stories requested per refresh.
//   - ProxyEventsURL: event stream endpoint of a local cache proxy;
//     empty disables the subscription.
type Config struct {
	APIBaseURL          string
	DataDir             string
	OnlineCheckInterval time.Duration
	SyncTimeout         time.Duration
	CacheTTL            time.Duration
	MaxDraftAttempts    int
	PageSize            int
	ProxyEventsURL      string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "https://story-api.dicoding.dev/v1"
	c.DataDir = ""
	c.OnlineCheckInterval = 5 * time.Second
	c.SyncTimeout = 10 * time.Second
	c.CacheTTL = time.Hour
	c.MaxDraftAttempts = 10
	c.PageSize = 30
	c.ProxyEventsURL = ""
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from the environment, a JSON file (if present) and command-line flags.
// Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
