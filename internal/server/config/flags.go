package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

var knownFlags = []string{"-a", "-g", "-d", "-s", "-k", "-t", "-r", "-b", "-e", "-p", "-l", "-f"}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-g string   gRPC health bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   access token HMAC secret
//	-k string   admin token for session issuance
//	-t int      access token lifetime, minutes
//	-r int      refresh token lifetime, minutes
//	-b string   cache backend: memory or redis
//	-e string   Redis address
//	-p float    reaper sampling probability
//	-l string   log level
//	-f string   log format: json, text or zap
//
// Lifetimes are accepted as integer minutes and converted to time.Duration.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("gophauth", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to serve the token API")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "address and port to serve gRPC health")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.AdminToken, "k", config.AdminToken, "admin token for session issuance")

	accessMinutes := fs.Int("t", int(config.AccessTokenLifetime.Minutes()), "access token lifetime (in minutes)")
	refreshMinutes := fs.Int("r", config.RefreshTokenLifetimeMinutes(), "refresh token lifetime (in minutes)")

	fs.StringVar(&config.CacheBackend, "b", config.CacheBackend, "cache backend (memory|redis)")
	fs.StringVar(&config.RedisAddr, "e", config.RedisAddr, "redis address")
	fs.Float64Var(&config.ReaperProbability, "p", config.ReaperProbability, "expired token purge probability per request")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format (json|text|zap)")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	config.AccessTokenLifetime = time.Duration(*accessMinutes) * time.Minute
	config.RefreshTokenLifetime = time.Duration(*refreshMinutes) * time.Minute
	return nil
}
