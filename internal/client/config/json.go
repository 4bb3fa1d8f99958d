package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/storykeeper/internal/flagx"
	"github.com/dmitrijs2005/storykeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies
// on timex.Duration so JSON can specify intervals either as strings like
// "5s" or as integer nanoseconds. After parsing, values are copied into
// the runtime Config (which uses time.Duration).
type JsonConfig struct {
	APIBaseURL          string         `json:"api_base_url"`
	DataDir             string         `json:"data_dir"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	SyncTimeout         timex.Duration `json:"sync_timeout"`
	CacheTTL            timex.Duration `json:"cache_ttl"`
	MaxDraftAttempts    int            `json:"max_draft_attempts"`
	PageSize            int            `json:"page_size"`
	ProxyEventsURL      string         `json:"proxy_events_url"`
}

// parseJson overlays Config with values loaded from a JSON file. The file
// path comes from the -c/-config flags via flagx.JsonConfigFlags; when no
// path is given nothing is loaded. Only fields actually present in the
// file override the earlier layers. Read and unmarshal errors panic:
// a config file that exists but cannot be used is a startup defect.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.APIBaseURL != "" {
		cfg.APIBaseURL = jc.APIBaseURL
	}
	if jc.DataDir != "" {
		cfg.DataDir = jc.DataDir
	}
	if jc.OnlineCheckInterval != 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Std()
	}
	if jc.SyncTimeout != 0 {
		cfg.SyncTimeout = jc.SyncTimeout.Std()
	}
	if jc.CacheTTL != 0 {
		cfg.CacheTTL = jc.CacheTTL.Std()
	}
	if jc.MaxDraftAttempts != 0 {
		cfg.MaxDraftAttempts = jc.MaxDraftAttempts
	}
	if jc.PageSize != 0 {
		cfg.PageSize = jc.PageSize
	}
	if jc.ProxyEventsURL != "" {
		cfg.ProxyEventsURL = jc.ProxyEventsURL
	}
}
