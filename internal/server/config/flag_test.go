package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected *Config
		name     string
		args     []string
		wantErr  bool
	}{
		{
			name: "all flags",
			args: []string{
				"-a", "127.0.0.1:9090", "-g", "127.0.0.1:9091", "-d", "db", "-s", "secret",
				"-k", "admin", "-t", "5", "-r", "10080", "-b", "redis", "-e", "redis:6379", "-p", "0.5",
				"-l", "debug", "-f", "zap",
			},
			expected: &Config{
				HTTPAddr:             "127.0.0.1:9090",
				GRPCAddr:             "127.0.0.1:9091",
				DatabaseDSN:          "db",
				SecretKey:            "secret",
				AdminToken:           "admin",
				AccessTokenLifetime:  5 * time.Minute,
				RefreshTokenLifetime: 7 * 24 * time.Hour,
				CacheBackend:         "redis",
				RedisAddr:            "redis:6379",
				ReaperProbability:    0.5,
				LogLevel:             "debug",
				LogFormat:            "zap",
			},
		},
		{
			name: "unrelated flags are ignored",
			args: []string{"-c", "conf.json", "-x", "1", "-t", "1"},
			expected: &Config{
				AccessTokenLifetime: time.Minute,
			},
		},
		{
			name:    "malformed number",
			args:    []string{"-t", "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}
			err := parseFlags(config, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
