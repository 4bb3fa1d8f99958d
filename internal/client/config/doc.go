// Package config loads runtime configuration for the StoryKeeper client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. STORYKEEPER_* environment variables (see parseEnv).
//  3. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the story API
//	-d string   data directory for the local database
//	-i int      online status check interval (seconds)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be
// either strings like "5s" or integer nanoseconds:
//
//	{
//	  "api_base_url": "https://story-api.dicoding.dev/v1",
//	  "data_dir": "/var/lib/storykeeper",
//	  "online_check_interval": "5s",
//	  "sync_timeout": "10s",
//	  "cache_ttl": "1h",
//	  "max_draft_attempts": 10,
//	  "page_size": 30
//	}
//
// Primary API
//
//   - type Config                   — runtime settings for the client
//   - func LoadConfig() *Config     — defaults, then env, JSON, flags
//   - func (*Config) LoadDefaults() — sets sensible defaults
package config
