package common

// Error codes returned to clients in response bodies.
const (
	CodeInvalidRefreshToken = "invalid-refresh-token"
	CodeStoreUnavailable    = "store-unavailable"
	CodeInvalidRequest      = "invalid-request"
	CodeUnknownUser         = "unknown-user"
	CodeUnauthorized        = "unauthorized"
	CodeInternal            = "internal-error"
)

// MinutesPerDay converts minute-denominated lifetimes to whole days.
const MinutesPerDay = 24 * 60
