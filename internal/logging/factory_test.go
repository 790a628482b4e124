package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(FormatJSON, "info", &buf)
	require.NoError(t, err)

	log.Debug(context.Background(), "hidden")
	log.With("module", "rotation").Info(context.Background(), "rotated", "user_id", "u1")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1, "debug must be filtered at info level")

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "rotated", rec["msg"])
	assert.Equal(t, "rotation", rec["module"])
	assert.Equal(t, "u1", rec["user_id"])
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(FormatText, "debug", &buf)
	require.NoError(t, err)

	log.Debug(context.Background(), "dbg", "k", "v")
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "k=v")
}

func TestNew_Zap(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(FormatZap, "warn", &buf)
	require.NoError(t, err)

	log.Info(context.Background(), "hidden")
	log.With("module", "reaper").Warn(context.Background(), "purge failed", "err", "boom")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"purge failed"`)
	assert.Contains(t, out, `"module":"reaper"`)
	assert.Contains(t, out, `"err":"boom"`)
}

func TestNew_Errors(t *testing.T) {
	_, err := New("xml", "info", &bytes.Buffer{})
	assert.Error(t, err)

	_, err = New(FormatJSON, "loud", &bytes.Buffer{})
	assert.Error(t, err)

	_, err = New(FormatZap, "loud", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info(context.Background(), "nothing")
	assert.NotNil(t, l.With("a", 1))
}
