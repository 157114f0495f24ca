// Package config loads runtime configuration for the ProfileKeeper client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the backend HTTP API
//	-d string   path to the local sqlite database file
//	-t int      request timeout (seconds)
//	-i int      online status check interval (seconds)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "3s" or integer nanoseconds:
//
//	{
//	  "server_base_url": "http://127.0.0.1:8080",
//	  "database_path": "profilekeeper.db",
//	  "request_timeout": "10s",
//	  "online_check_interval": "3s"
//	}
//
// This package does not read environment variables; use the JSON file or
// flags to configure values.
package config
