package config

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/dmitrijs2005/bookkeeper/internal/timex"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Absent keys
// leave the current value in place.
type JsonConfig struct {
	ServerURL      *string         `json:"server_url"`
	SessionPath    *string         `json:"session_path"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
}

// ApplyFile overlays the values present in the JSON file at path.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}

	if jc.ServerURL != nil {
		c.ServerURL = *jc.ServerURL
	}
	if jc.SessionPath != nil {
		c.SessionPath = *jc.SessionPath
	}
	if jc.RequestTimeout != nil {
		c.RequestTimeout = jc.RequestTimeout.Duration
	}
	return nil
}
