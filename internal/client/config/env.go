package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// envConfig mirrors the Config fields that can be set from the
// environment. Pointer fields distinguish "unset" from a zero value so an
// absent variable never clobbers an earlier layer.
type envConfig struct {
	APIBaseURL          *string        `envconfig:"API_BASE_URL"`
	DataDir             *string        `envconfig:"DATA_DIR"`
	OnlineCheckInterval *time.Duration `envconfig:"ONLINE_CHECK_INTERVAL"`
	SyncTimeout         *time.Duration `envconfig:"SYNC_TIMEOUT"`
	CacheTTL            *time.Duration `envconfig:"CACHE_TTL"`
	MaxDraftAttempts    *int           `envconfig:"MAX_DRAFT_ATTEMPTS"`
	PageSize            *int           `envconfig:"PAGE_SIZE"`
	ProxyEventsURL      *string        `envconfig:"PROXY_EVENTS_URL"`
}

// parseEnv overlays Config with STORYKEEPER_* environment variables.
// Durations accept the usual Go syntax ("5s", "1h30m").
func parseEnv(cfg *Config) {
	var ec envConfig
	if err := envconfig.Process("storykeeper", &ec); err != nil {
		panic(err)
	}

	if ec.APIBaseURL != nil {
		cfg.APIBaseURL = *ec.APIBaseURL
	}
	if ec.DataDir != nil {
		cfg.DataDir = *ec.DataDir
	}
	if ec.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = *ec.OnlineCheckInterval
	}
	if ec.SyncTimeout != nil {
		cfg.SyncTimeout = *ec.SyncTimeout
	}
	if ec.CacheTTL != nil {
		cfg.CacheTTL = *ec.CacheTTL
	}
	if ec.MaxDraftAttempts != nil {
		cfg.MaxDraftAttempts = *ec.MaxDraftAttempts
	}
	if ec.PageSize != nil {
		cfg.PageSize = *ec.PageSize
	}
	if ec.ProxyEventsURL != nil {
		cfg.ProxyEventsURL = *ec.ProxyEventsURL
	}
}
