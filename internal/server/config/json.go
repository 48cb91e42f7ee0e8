package config

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/dmitrijs2005/bookkeeper/internal/flagx"
	"github.com/dmitrijs2005/bookkeeper/internal/timex"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JsonConfig is the on-disk shape of the configuration file. Pointer fields
// distinguish "absent" from zero values so a partial file only overrides
// what it names.
type JsonConfig struct {
	EndpointAddrHTTP            *string         `json:"endpoint_addr_http"`
	DatabaseDriver              *string         `json:"database_driver"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	SecretKey                   *string         `json:"secret_key"`
	SigningMethod               *string         `json:"signing_method"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	RateLimitEnabled            *bool           `json:"rate_limit_enabled"`
	RateLimitRPS                *float64        `json:"rate_limit_rps"`
	RateLimitBurst              *int            `json:"rate_limit_burst"`
	S3RootUser                  *string         `json:"s3_root_user"`
	S3RootPassword              *string         `json:"s3_root_password"`
	S3Bucket                    *string         `json:"s3_bucket"`
	S3Region                    *string         `json:"s3_region"`
	S3BaseEndpoint              *string         `json:"s3_base_endpoint"`
	LogLevel                    *string         `json:"log_level"`
}

// parseJSON overlays the file named by -c / -config, if any.
func parseJSON(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}
	return config.ApplyFile(path)
}

// ApplyFile overlays the values present in the JSON file at path.
func (c *Config) ApplyFile(path string) error {
	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(file, &jc); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}

	setString(&c.EndpointAddrHTTP, jc.EndpointAddrHTTP)
	setString(&c.DatabaseDriver, jc.DatabaseDriver)
	setString(&c.DatabaseDSN, jc.DatabaseDSN)
	setString(&c.SecretKey, jc.SecretKey)
	setString(&c.SigningMethod, jc.SigningMethod)
	if jc.AccessTokenValidityDuration != nil {
		c.AccessTokenValidityDuration = jc.AccessTokenValidityDuration.Duration
	}
	if jc.RateLimitEnabled != nil {
		c.RateLimitEnabled = *jc.RateLimitEnabled
	}
	if jc.RateLimitRPS != nil {
		c.RateLimitRPS = *jc.RateLimitRPS
	}
	if jc.RateLimitBurst != nil {
		c.RateLimitBurst = *jc.RateLimitBurst
	}
	setString(&c.S3RootUser, jc.S3RootUser)
	setString(&c.S3RootPassword, jc.S3RootPassword)
	setString(&c.S3Bucket, jc.S3Bucket)
	setString(&c.S3Region, jc.S3Region)
	setString(&c.S3BaseEndpoint, jc.S3BaseEndpoint)
	setString(&c.LogLevel, jc.LogLevel)

	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
