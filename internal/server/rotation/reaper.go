package rotation

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
)

// Purger removes expired refresh tokens from the credential store.
type Purger interface {
	DeleteExpiredRefreshTokens(ctx context.Context) (int64, error)
}

// Sampler returns a uniformly distributed value in [0, 1).
type Sampler func() float64

// Reaper purges expired tokens as a sampled side effect of successful lookups
// instead of on a schedule.
type Reaper struct {
	store       Purger
	probability float64
	sample      Sampler
	sync        bool
	timeout     time.Duration
	logger      logging.Logger
	metrics     *metrics.Metrics

	wg sync.WaitGroup
}

// NewReaper builds a reaper that fires with the given probability. mode is
// config.ReaperModeAsync or config.ReaperModeSync.
func NewReaper(store Purger, probability float64, mode string, timeout time.Duration) *Reaper {
	return &Reaper{
		store:       store,
		probability: probability,
		sample:      rand.Float64,
		sync:        mode == config.ReaperModeSync,
		timeout:     timeout,
		logger:      logging.Nop(),
	}
}

// MaybeReap draws a sample and, when it falls under the probability,
// dispatches a purge. In async mode the purge runs on its own goroutine with a
// context detached from ctx, so the caller never waits for it. It reports
// whether a purge was dispatched.
func (r *Reaper) MaybeReap(ctx context.Context) bool {
	if r == nil || r.probability <= 0 || r.sample() >= r.probability {
		return false
	}

	if r.sync {
		r.purge(ctx)
		return true
	}

	detached := context.WithoutCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.purge(detached)
	}()
	return true
}

// Wait blocks until every dispatched purge has finished.
func (r *Reaper) Wait() {
	if r == nil {
		return
	}
	r.wg.Wait()
}

func (r *Reaper) purge(ctx context.Context) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	n, err := r.store.DeleteExpiredRefreshTokens(ctx)
	r.metrics.ReaperRun(n, err)
	if err != nil {
		r.logger.Error(ctx, "expired token purge failed", "error", err)
		return
	}
	r.logger.Debug(ctx, "expired tokens purged", "removed", n)
}
