// Package common defines shared constants and sentinel errors used across
// gophauth components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrorUnknownUser = errors.New("unknown user")

	// Service-level errors.
	ErrorInternal = errors.New("internal error")

	// ErrInvalidRefreshToken is the only failure reported to clients: the token
	// is absent, expired, superseded or was recently proven invalid.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrStoreUnavailable marks a transient credential store failure. It must
	// never be mistaken for an invalid token.
	ErrStoreUnavailable = errors.New("credential store unavailable")
)
