// Package cache holds the two short-lived caches in front of the credential
// store: the negative cache of recently rejected refresh tokens and the
// session cache of recently issued sessions.
//
// Both come in a process-local flavour backed by ristretto and a shared
// flavour backed by Redis. Neither is authoritative: a miss only ever costs a
// store round trip or a redundant rotation.
package cache

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// ErrEntryRejected is returned when a process-local cache refuses to keep an
// entry, either under contention or by its admission policy.
var ErrEntryRejected = errors.New("cache entry rejected")

// NegativeCache remembers refresh tokens the store recently rejected.
type NegativeCache interface {
	// IsKnownInvalid reports whether token was marked invalid within the TTL.
	IsKnownInvalid(ctx context.Context, token string) (bool, error)
	// MarkInvalid records token as invalid for the configured TTL.
	MarkInvalid(ctx context.Context, token string) error
}

// SessionCache remembers the last session issued per user.
type SessionCache interface {
	// Get returns the cached entry for userID or nil when there is none.
	Get(ctx context.Context, userID string) (*models.CachedSession, error)
	// Put stores entry for userID, replacing any previous entry and resetting
	// its TTL.
	Put(ctx context.Context, userID string, entry *models.CachedSession) error
}

func cloneEntry(e *models.CachedSession) *models.CachedSession {
	if e == nil {
		return nil
	}
	out := &models.CachedSession{PresentedFingerprint: e.PresentedFingerprint}
	if e.Session != nil {
		s := *e.Session
		if s.User != nil {
			u := *s.User
			s.User = &u
		}
		out.Session = &s
	}
	return out
}
