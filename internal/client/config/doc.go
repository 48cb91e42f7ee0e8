// Package config loads runtime configuration for libraryctl.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see (*Config).ApplyFile) selected with -c / --config.
//  3. Command-line flags bound by the cobra root command, which override
//     earlier values.
//
// # JSON schema
//
// Durations use timex.Duration, so values can be either strings like "10s"
// or integer nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "session_path": "/home/me/.bookkeeper/session.db",
//	  "request_timeout": "10s"
//	}
package config
