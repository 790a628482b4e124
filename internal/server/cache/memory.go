package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

const (
	defaultMaxEntries = 10_000
	// ristretto recommends ten counters per expected entry
	countersPerEntry = 10
	bufferItems      = 64
)

// item is stored alongside its own deadline so expiry follows the injected
// clock rather than ristretto's internal ticker.
type item[V any] struct {
	value    V
	deadline time.Time
}

type memoryStore[V any] struct {
	c   *ristretto.Cache[string, item[V]]
	ttl time.Duration
	now timex.Clock
}

func newMemoryStore[V any](ttl time.Duration, now timex.Clock, maxEntries int64) (*memoryStore[V], error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive, got %s", ttl)
	}
	if now == nil {
		now = time.Now
	}
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, item[V]]{
		NumCounters:        maxEntries * countersPerEntry,
		MaxCost:            maxEntries,
		BufferItems:        bufferItems,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	return &memoryStore[V]{c: c, ttl: ttl, now: now}, nil
}

func (s *memoryStore[V]) get(key string) (V, bool) {
	it, ok := s.c.Get(key)
	if !ok || !s.now().Before(it.deadline) {
		var zero V
		return zero, false
	}
	return it.value, true
}

func (s *memoryStore[V]) set(key string, v V) error {
	if !s.c.SetWithTTL(key, item[V]{value: v, deadline: s.now().Add(s.ttl)}, 1, s.ttl) {
		return fmt.Errorf("%w: set dropped", ErrEntryRejected)
	}
	s.c.Wait()
	if _, ok := s.c.Get(key); !ok {
		return fmt.Errorf("%w: not admitted", ErrEntryRejected)
	}
	return nil
}

func (s *memoryStore[V]) close() { s.c.Close() }

// MemoryOption tunes a process-local cache.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	now        timex.Clock
	maxEntries int64
}

// WithClock makes expiry follow now instead of time.Now.
func WithClock(now timex.Clock) MemoryOption {
	return func(o *memoryOptions) { o.now = now }
}

// WithMaxEntries bounds the number of entries kept in memory.
func WithMaxEntries(n int64) MemoryOption {
	return func(o *memoryOptions) { o.maxEntries = n }
}

func applyMemoryOptions(opts []MemoryOption) memoryOptions {
	o := memoryOptions{now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// MemoryNegativeCache is a process-local NegativeCache. Tokens are kept by
// fingerprint only.
type MemoryNegativeCache struct {
	store *memoryStore[struct{}]
}

func NewMemoryNegativeCache(ttl time.Duration, opts ...MemoryOption) (*MemoryNegativeCache, error) {
	o := applyMemoryOptions(opts)
	s, err := newMemoryStore[struct{}](ttl, o.now, o.maxEntries)
	if err != nil {
		return nil, err
	}
	return &MemoryNegativeCache{store: s}, nil
}

func (c *MemoryNegativeCache) IsKnownInvalid(_ context.Context, token string) (bool, error) {
	_, ok := c.store.get(cryptox.Fingerprint(token))
	return ok, nil
}

func (c *MemoryNegativeCache) MarkInvalid(_ context.Context, token string) error {
	return c.store.set(cryptox.Fingerprint(token), struct{}{})
}

// Close releases the background goroutines held by ristretto.
func (c *MemoryNegativeCache) Close() { c.store.close() }

// MemorySessionCache is a process-local SessionCache.
type MemorySessionCache struct {
	store *memoryStore[*models.CachedSession]
}

func NewMemorySessionCache(ttl time.Duration, opts ...MemoryOption) (*MemorySessionCache, error) {
	o := applyMemoryOptions(opts)
	s, err := newMemoryStore[*models.CachedSession](ttl, o.now, o.maxEntries)
	if err != nil {
		return nil, err
	}
	return &MemorySessionCache{store: s}, nil
}

func (c *MemorySessionCache) Get(_ context.Context, userID string) (*models.CachedSession, error) {
	e, ok := c.store.get(userID)
	if !ok {
		return nil, nil
	}
	return cloneEntry(e), nil
}

func (c *MemorySessionCache) Put(_ context.Context, userID string, entry *models.CachedSession) error {
	if entry == nil {
		return fmt.Errorf("nil session cache entry for user %s", userID)
	}
	return c.store.set(userID, cloneEntry(entry))
}

func (c *MemorySessionCache) Close() { c.store.close() }
