package cryptox

import (
	"encoding/hex"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRefreshToken_IsUUIDAndUnique(t *testing.T) {
	a := NewRefreshToken()
	b := NewRefreshToken()

	_, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestFingerprint(t *testing.T) {
	fp := Fingerprint("token-1")

	raw, err := hex.DecodeString(fp)
	require.NoError(t, err)
	assert.Len(t, raw, 32)

	assert.Equal(t, fp, Fingerprint("token-1"), "fingerprint must be deterministic")
	assert.NotEqual(t, fp, Fingerprint("token-2"))
	assert.NotContains(t, fp, "token-1")
}

func TestSameFingerprint(t *testing.T) {
	assert.True(t, SameFingerprint(Fingerprint("x"), Fingerprint("x")))
	assert.False(t, SameFingerprint(Fingerprint("x"), Fingerprint("y")))
	assert.False(t, SameFingerprint("", Fingerprint("y")))
}
