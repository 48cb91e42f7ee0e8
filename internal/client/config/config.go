package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the libraryctl client commands.
//
// Fields:
//   - ServerURL: base URL of the BookKeeper HTTP API.
//   - SessionPath: SQLite file holding the access token between runs.
//   - RequestTimeout: per-request HTTP timeout.
type Config struct {
	ServerURL      string
	SessionPath    string
	RequestTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.SessionPath = defaultSessionPath()
	c.RequestTimeout = 10 * time.Second
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "libraryctl-session.db"
	}
	return filepath.Join(dir, "bookkeeper", "session.db")
}
