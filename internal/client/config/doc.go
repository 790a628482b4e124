// Package config loads runtime configuration for the gophauth command-line
// client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config (or GOPHAUTH_CONFIG).
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the token API
//	-k string   admin token used by the issue command
//	-i int      request timeout (seconds)
//
// # JSON schema
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "admin_token": "...",
//	  "request_timeout": "10s"
//	}
package config
