// Package config loads runtime settings for the FocusKeeper client.
package config

import "time"

// Config holds runtime settings.
//
// Fields:
//   - DatabaseDSN: path (or DSN) of the local SQLite database.
//   - RemoteEndpointAddr: base URL of the remote row-store, e.g. "https://api.example.com".
//   - TokenEndpointAddr: URL of the bearer-token endpoint; empty disables remote auth.
//   - UserID: stable user identifier supplied by the auth provider (UUID string).
//   - SyncInterval: how often a background sync pass is attempted.
//   - TokenTimeout: upper bound on credential acquisition so a slow network
//     never blocks local-only operation.
//   - RemoteTimeout: per-request timeout for calls to the remote row-store.
//   - LogFile: path of the rotating log file; empty logs to stderr.
//   - LogFormat: stderr log encoding, "json" or "text"; ignored when LogFile is set.
type Config struct {
	DatabaseDSN        string
	RemoteEndpointAddr string
	TokenEndpointAddr  string
	UserID             string
	SyncInterval       time.Duration
	TokenTimeout       time.Duration
	RemoteTimeout      time.Duration
	LogFile            string
	LogFormat          string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabaseDSN = "focuskeeper.db"
	c.RemoteEndpointAddr = ""
	c.TokenEndpointAddr = ""
	c.UserID = ""
	c.SyncInterval = 60 * time.Second
	c.TokenTimeout = 3 * time.Second
	c.RemoteTimeout = 10 * time.Second
	c.LogFile = ""
	c.LogFormat = "json"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
