// Package models holds the data types shared between the store, the caches
// and the rotation engine.
package models

import "time"

// Session is what a successful refresh returns to the client. It is never
// persisted; only cached for a short while.
type Session struct {
	AccessToken           string    `json:"accessToken"`
	AccessTokenExpiresIn  int64     `json:"accessTokenExpiresIn"`
	RefreshToken          string    `json:"refreshToken"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
	User                  *User     `json:"user"`
}

// CachedSession is a session cache entry. PresentedFingerprint identifies the
// refresh token whose rotation produced Session.
type CachedSession struct {
	PresentedFingerprint string   `json:"presentedFingerprint"`
	Session              *Session `json:"session"`
}
