// Package refreshtokens declares the credential store contract: durable
// refresh tokens keyed by value, owned by a user, with an expiry.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository defines operations for issuing, resolving, rotating and purging
// refresh tokens.
type Repository interface {
	// FindUserByRefreshToken returns the owner of token when the token exists
	// and its expiry is strictly in the future. Otherwise it returns
	// common.ErrorNotFound.
	FindUserByRefreshToken(ctx context.Context, token string) (*models.User, error)

	// InsertRefreshToken stores a new token for userID. An unknown user yields
	// common.ErrorUnknownUser.
	InsertRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error

	// RotateRefreshToken atomically marks oldToken superseded, caps its expiry
	// at oldExpiresAt and stores newToken for userID. Rotation is one-shot: a
	// token that is missing, expired or already superseded yields
	// common.ErrorNotFound and nothing is stored.
	RotateRefreshToken(ctx context.Context, userID, oldToken, newToken string, newExpiresAt, oldExpiresAt time.Time) error

	// DeleteRefreshToken removes a token. Deleting a missing token is not an error.
	DeleteRefreshToken(ctx context.Context, token string) error

	// DeleteExpiredRefreshTokens removes every token whose expiry has passed
	// and reports how many rows were removed.
	DeleteExpiredRefreshTokens(ctx context.Context) (int64, error)
}
