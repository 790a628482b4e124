package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations accept
// strings such as "60s" or integer nanoseconds.
type JsonConfig struct {
	HTTPAddr             string         `json:"http_addr"`
	GRPCAddr             string         `json:"grpc_addr"`
	DatabaseDSN          string         `json:"database_dsn"`
	SecretKey            string         `json:"secret_key"`
	AdminToken           string         `json:"admin_token"`
	AccessTokenLifetime  timex.Duration `json:"access_token_lifetime"`
	RefreshTokenLifetime timex.Duration `json:"refresh_token_lifetime"`
	InvalidTokenCacheTTL timex.Duration `json:"invalid_token_cache_ttl"`
	SessionCacheTTL      timex.Duration `json:"session_cache_ttl"`
	SupersedeGrace       timex.Duration `json:"supersede_grace"`
	ReaperProbability    float64        `json:"reaper_probability"`
	ReaperMode           string         `json:"reaper_mode"`
	ReaperTimeout        timex.Duration `json:"reaper_timeout"`
	CacheBackend         string         `json:"cache_backend"`
	RedisAddr            string         `json:"redis_addr"`
	RedisPassword        string         `json:"redis_password"`
	RedisDB              int            `json:"redis_db"`
	LogLevel             string         `json:"log_level"`
	LogFormat            string         `json:"log_format"`
}

// parseJson overlays values from the JSON file named by -c/-config (or the
// GOPHAUTH_CONFIG variable). Keys missing from the file keep their current
// values. No file configured means nothing to do.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	config.HTTPAddr = c.HTTPAddr
	config.GRPCAddr = c.GRPCAddr
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.AdminToken = c.AdminToken
	config.AccessTokenLifetime = c.AccessTokenLifetime.Duration
	config.RefreshTokenLifetime = c.RefreshTokenLifetime.Duration
	config.InvalidTokenCacheTTL = c.InvalidTokenCacheTTL.Duration
	config.SessionCacheTTL = c.SessionCacheTTL.Duration
	config.SupersedeGrace = c.SupersedeGrace.Duration
	config.ReaperProbability = c.ReaperProbability
	config.ReaperMode = c.ReaperMode
	config.ReaperTimeout = c.ReaperTimeout.Duration
	config.CacheBackend = c.CacheBackend
	config.RedisAddr = c.RedisAddr
	config.RedisPassword = c.RedisPassword
	config.RedisDB = c.RedisDB
	config.LogLevel = c.LogLevel
	config.LogFormat = c.LogFormat
	return nil
}

func toJson(config *Config) *JsonConfig {
	return &JsonConfig{
		HTTPAddr:             config.HTTPAddr,
		GRPCAddr:             config.GRPCAddr,
		DatabaseDSN:          config.DatabaseDSN,
		SecretKey:            config.SecretKey,
		AdminToken:           config.AdminToken,
		AccessTokenLifetime:  timex.Duration{Duration: config.AccessTokenLifetime},
		RefreshTokenLifetime: timex.Duration{Duration: config.RefreshTokenLifetime},
		InvalidTokenCacheTTL: timex.Duration{Duration: config.InvalidTokenCacheTTL},
		SessionCacheTTL:      timex.Duration{Duration: config.SessionCacheTTL},
		SupersedeGrace:       timex.Duration{Duration: config.SupersedeGrace},
		ReaperProbability:    config.ReaperProbability,
		ReaperMode:           config.ReaperMode,
		ReaperTimeout:        timex.Duration{Duration: config.ReaperTimeout},
		CacheBackend:         config.CacheBackend,
		RedisAddr:            config.RedisAddr,
		RedisPassword:        config.RedisPassword,
		RedisDB:              config.RedisDB,
		LogLevel:             config.LogLevel,
		LogFormat:            config.LogFormat,
	}
}
