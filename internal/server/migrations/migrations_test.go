package migrations

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsEmbedded(t *testing.T) {
	names, err := fs.Glob(Migrations, "*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"00001_users.sql",
		"00002_refresh_tokens.sql",
		"00003_refresh_tokens_superseded.sql",
	}, names)

	body, err := fs.ReadFile(Migrations, "00002_refresh_tokens.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "-- +goose Up")
	assert.Contains(t, string(body), "REFERENCES users (id)")

	body, err = fs.ReadFile(Migrations, "00003_refresh_tokens_superseded.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "superseded_at TIMESTAMPTZ")
}
