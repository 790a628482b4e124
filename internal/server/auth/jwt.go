// Package auth mints the short-lived access tokens handed out with every
// session. Resource servers verify them with the shared HS256 secret.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carries the registered claims plus the owning user id.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

// Signer issues HS256 access tokens with a fixed lifetime.
type Signer struct {
	secret   []byte
	lifetime time.Duration
}

func NewSigner(secret []byte, lifetime time.Duration) *Signer {
	return &Signer{secret: secret, lifetime: lifetime}
}

// Lifetime is the validity period of issued tokens.
func (s *Signer) Lifetime() time.Duration {
	return s.lifetime
}

// Sign returns a signed access token for userID issued at now.
func (s *Signer) Sign(userID string, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
		},
		UserID: userID,
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}
