// Package rotation implements refresh token rotation: it turns a presented
// refresh token into a renewed session or rejects it, using the negative and
// session caches to absorb replays and retries, and samples the reaper after
// every successful lookup.
package rotation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/cache"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophauth/internal/timex"
	"golang.org/x/sync/singleflight"
)

// Engine rotates refresh tokens. It is safe for concurrent use.
type Engine struct {
	store    refreshtokens.Repository
	users    users.Repository
	negative cache.NegativeCache
	sessions cache.SessionCache
	signer   *auth.Signer
	reaper   *Reaper

	refreshLifetimeMinutes int
	supersedeGrace         time.Duration

	inflight singleflight.Group
	now      timex.Clock
	newToken func() string
	logger   logging.Logger
	metrics  *metrics.Metrics
}

// NewEngine wires an engine from its collaborators and the server config.
func NewEngine(
	store refreshtokens.Repository,
	usersRepo users.Repository,
	negative cache.NegativeCache,
	sessions cache.SessionCache,
	signer *auth.Signer,
	cfg *config.Config,
	opts ...Option,
) *Engine {
	e := &Engine{
		store:                  store,
		users:                  usersRepo,
		negative:               negative,
		sessions:               sessions,
		signer:                 signer,
		reaper:                 NewReaper(store, cfg.ReaperProbability, cfg.ReaperMode, cfg.ReaperTimeout),
		refreshLifetimeMinutes: cfg.RefreshTokenLifetimeMinutes(),
		supersedeGrace:         cfg.SupersedeGrace,
		now:                    time.Now,
		newToken:               cryptox.NewRefreshToken,
		logger:                 logging.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reaper exposes the engine's reaper so callers can wait for in-flight purges.
func (e *Engine) Reaper() *Reaper {
	return e.reaper
}

// Refresh exchanges a refresh token for a session. It returns
// common.ErrInvalidRefreshToken when the token is unknown, expired, superseded
// or recently rejected, and an error wrapping common.ErrStoreUnavailable when
// the credential store cannot answer.
func (e *Engine) Refresh(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		e.metrics.RefreshOutcome(metrics.OutcomeInvalid)
		return nil, common.ErrInvalidRefreshToken
	}

	known, err := e.negative.IsKnownInvalid(ctx, token)
	if err != nil {
		e.cacheError(ctx, metrics.CacheNegative, "negative cache lookup failed", err)
	} else if known {
		e.metrics.RefreshOutcome(metrics.OutcomeNegativeHit)
		return nil, common.ErrInvalidRefreshToken
	}

	// Identical tokens in flight share one lookup-and-rotate. The shared call
	// must not die with whichever caller happened to start it.
	fp := cryptox.Fingerprint(token)
	ch := e.inflight.DoChan(fp, func() (any, error) {
		return e.refresh(context.WithoutCancel(ctx), token, fp)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.Session), nil
	}
}

func (e *Engine) refresh(ctx context.Context, token, fp string) (*models.Session, error) {
	user, err := e.store.FindUserByRefreshToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, e.reject(ctx, token)
		}
		e.metrics.RefreshOutcome(metrics.OutcomeStoreUnavailable)
		e.logger.Error(ctx, "refresh token lookup failed", "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}

	e.reaper.MaybeReap(ctx)

	cached, err := e.sessions.Get(ctx, user.ID)
	if err != nil {
		e.cacheError(ctx, metrics.CacheSession, "session cache lookup failed", err)
	} else if cached != nil && cached.Session != nil && cryptox.SameFingerprint(cached.PresentedFingerprint, fp) {
		e.metrics.RefreshOutcome(metrics.OutcomeCoalesced)
		e.logger.Debug(ctx, "served cached session", "user_id", user.ID)
		return cached.Session, nil
	}

	session, err := e.rotate(ctx, user, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, e.reject(ctx, token)
		}
		e.metrics.RefreshOutcome(metrics.OutcomeStoreUnavailable)
		e.logger.Error(ctx, "refresh token rotation failed", "user_id", user.ID, "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}

	entry := &models.CachedSession{PresentedFingerprint: fp, Session: session}
	if err := e.sessions.Put(ctx, user.ID, entry); err != nil {
		e.cacheError(ctx, metrics.CacheSession, "session cache store failed", err)
	}

	e.metrics.RefreshOutcome(metrics.OutcomeRotated)
	e.logger.Info(ctx, "refresh token rotated", "user_id", user.ID)
	return session, nil
}

// reject poisons token in the negative cache and reports it as invalid.
func (e *Engine) reject(ctx context.Context, token string) error {
	if err := e.negative.MarkInvalid(ctx, token); err != nil {
		e.cacheError(ctx, metrics.CacheNegative, "negative cache store failed", err)
	}
	e.metrics.RefreshOutcome(metrics.OutcomeInvalid)
	return common.ErrInvalidRefreshToken
}

// rotate supersedes token with a fresh one. The presented token keeps
// resolving for the supersede grace so retries reach the session cache.
func (e *Engine) rotate(ctx context.Context, user *models.User, token string) (*models.Session, error) {
	now := e.now()
	session, err := e.newSession(user, now)
	if err != nil {
		return nil, err
	}

	err = e.store.RotateRefreshToken(ctx, user.ID, token, session.RefreshToken,
		session.RefreshTokenExpiresAt, now.Add(e.supersedeGrace))
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (e *Engine) newSession(user *models.User, now time.Time) (*models.Session, error) {
	access, err := e.signer.Sign(user.ID, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	return &models.Session{
		AccessToken:           access,
		AccessTokenExpiresIn:  int64(e.signer.Lifetime() / time.Second),
		RefreshToken:          e.newToken(),
		RefreshTokenExpiresAt: timex.AddWholeDays(now, e.refreshLifetimeMinutes),
		User:                  user,
	}, nil
}

// Issue creates the first session for a user who just authenticated by other
// means. It returns common.ErrorUnknownUser when the user does not exist.
func (e *Engine) Issue(ctx context.Context, userID string) (*models.Session, error) {
	user, err := e.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnknownUser
		}
		return nil, fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}

	session, err := e.newSession(user, e.now())
	if err != nil {
		return nil, err
	}

	err = e.store.InsertRefreshToken(ctx, user.ID, session.RefreshToken, session.RefreshTokenExpiresAt)
	if err != nil {
		if errors.Is(err, common.ErrorUnknownUser) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}

	e.logger.Info(ctx, "session issued", "user_id", user.ID)
	return session, nil
}

// Revoke deletes token and remembers it as invalid. Revoking an unknown or
// empty token succeeds.
func (e *Engine) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := e.store.DeleteRefreshToken(ctx, token); err != nil {
		return fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}
	if err := e.negative.MarkInvalid(ctx, token); err != nil {
		e.cacheError(ctx, metrics.CacheNegative, "negative cache store failed", err)
	}
	return nil
}

func (e *Engine) cacheError(ctx context.Context, name, msg string, err error) {
	e.metrics.CacheError(name)
	e.logger.Warn(ctx, msg, "error", err)
}
