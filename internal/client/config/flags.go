package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/storykeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the story API (default from Config)
//	-d string   data directory for the local database
//	-i int      online check interval in seconds (default from Config)
//	-p string   event stream URL of a local cache proxy
//
// Note: The function filters os.Args to only include the flags it knows
// about, using flagx.FilterArgs, to avoid interference with other
// components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-i", "-p"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "base URL of the story API")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory for the local database")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.ProxyEventsURL, "p", cfg.ProxyEventsURL, "event stream URL of a local cache proxy")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}
