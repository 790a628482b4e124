// Package cryptox holds the small cryptographic helpers used around refresh
// tokens: value generation and one-way fingerprints for cache keys.
package cryptox

import (
	"crypto/subtle"
	"encoding/hex"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// NewRefreshToken returns a fresh opaque refresh token value (random UUIDv4).
func NewRefreshToken() string {
	return uuid.NewString()
}

// Fingerprint returns the hex-encoded BLAKE2b-256 digest of token. It is used
// wherever a token has to be remembered without storing the raw value.
func Fingerprint(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// SameFingerprint compares two fingerprints in constant time.
func SameFingerprint(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
