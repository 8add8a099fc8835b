package config

import "time"

// Config holds runtime settings for the maintenance dashboard CLI.
//
// Fields:
//   - ServerEndpointURL: base URL of the backend REST API.
//   - DatabasePath: path of the local SQLite credential store.
//   - RequestTimeout: per-request timeout for background API calls.
type Config struct {
	ServerEndpointURL string
	DatabasePath      string
	RequestTimeout    time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointURL = "http://127.0.0.1:8080"
	c.DatabasePath = "maintdash.db"
	c.RequestTimeout = 10 * time.Second
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
