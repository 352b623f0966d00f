package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/focuskeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   local database path
//	-a string   base URL of the remote store
//	-t string   token endpoint URL
//	-u string   user id
//	-i int      sync interval in seconds
//	-l string   log file path
//	-f string   stderr log format ("json" or "text")
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-a", "-t", "-u", "-i", "-l", "-f"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "local database path")
	fs.StringVar(&cfg.RemoteEndpointAddr, "a", cfg.RemoteEndpointAddr, "base URL of the remote store")
	fs.StringVar(&cfg.TokenEndpointAddr, "t", cfg.TokenEndpointAddr, "token endpoint URL")
	fs.StringVar(&cfg.UserID, "u", cfg.UserID, "user id")
	syncInterval := fs.Int("i", int(cfg.SyncInterval.Seconds()), "sync interval (in seconds)")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "log file path")
	fs.StringVar(&cfg.LogFormat, "f", cfg.LogFormat, "stderr log format")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.SyncInterval = time.Duration(*syncInterval) * time.Second
}
