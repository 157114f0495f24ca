package config

import "time"

// Config holds runtime settings for the ProfileKeeper client.
//
// Fields:
//   - ServerBaseURL: base URL of the backend HTTP API.
//   - DatabasePath: sqlite database file for the local session and user cache.
//   - RequestTimeout: per-request deadline for backend calls.
//   - OnlineCheckInterval: how often the client probes server reachability.
type Config struct {
	ServerBaseURL       string
	DatabasePath        string
	RequestTimeout      time.Duration
	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8080"
	c.DatabasePath = "profilekeeper.db"
	c.RequestTimeout = 10 * time.Second
	c.OnlineCheckInterval = 3 * time.Second
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
