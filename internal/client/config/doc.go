// Package config loads runtime configuration for the auth CLI.
//
// Sources, later ones win:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Environment: SERVER_URL, REQUEST_TIMEOUT.
//  4. Command-line flags.
//
// Flags
//
//	-a string   base URL of the auth server
//	-t int      per-request timeout (seconds)
//
// # JSON schema
//
//	{
//	  "server_url": "http://127.0.0.1:8000",
//	  "request_timeout": "10s"
//	}
package config
