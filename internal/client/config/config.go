package config

import (
	"flag"
	"fmt"
	"io"
	"time"
)

// Config holds runtime settings for the client.
type Config struct {
	ServerURL      string
	AdminToken     string
	RequestTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig applies defaults, the JSON file and then flags from args, and
// returns the positional arguments left after the flags.
func LoadConfig(args []string) (*Config, []string, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, nil, err
	}
	rest, err := parseFlags(cfg, args)
	if err != nil {
		return nil, nil, err
	}
	if cfg.RequestTimeout <= 0 {
		return nil, nil, fmt.Errorf("request timeout must be positive")
	}
	return cfg, rest, nil
}

// parseFlags applies the client flags and returns the positional arguments.
func parseFlags(cfg *Config, args []string) ([]string, error) {
	fs := flag.NewFlagSet("gophauth-client", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the token API")
	fs.StringVar(&cfg.AdminToken, "k", cfg.AdminToken, "admin token for session issuance")
	timeout := fs.Int("i", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	// accepted here so they do not end the flag list; parseJson reads them
	var ignored string
	fs.StringVar(&ignored, "c", "", "path to JSON config file (short)")
	fs.StringVar(&ignored, "config", "", "path to JSON config file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	return fs.Args(), nil
}
