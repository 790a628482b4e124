package rotation

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Now().UTC().Truncate(time.Second)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type tokenRow struct {
	userID     string
	expiresAt  time.Time
	superseded bool
}

// fakeStore is an in-memory credential store with call counters. Expiry is
// judged against the shared fake clock.
type fakeStore struct {
	mu     sync.Mutex
	now    func() time.Time
	users  map[string]*models.User
	tokens map[string]tokenRow

	findErr   error
	rotateErr error
	insertErr error
	deleteErr error
	purgeErr  error
	findHook  func()
	purgeHook func(ctx context.Context)

	findCalls   atomic.Int64
	rotateCalls atomic.Int64
	insertCalls atomic.Int64
	deleteCalls atomic.Int64
	purgeCalls  atomic.Int64
}

func newFakeStore(now func() time.Time) *fakeStore {
	return &fakeStore{
		now:    now,
		users:  map[string]*models.User{},
		tokens: map[string]tokenRow{},
	}
}

func (s *fakeStore) addUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *fakeStore) addToken(token, userID string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = tokenRow{userID: userID, expiresAt: expiresAt}
}

func (s *fakeStore) row(token string) (tokenRow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.tokens[token]
	return r, ok
}

func (s *fakeStore) FindUserByRefreshToken(_ context.Context, token string) (*models.User, error) {
	s.findCalls.Add(1)
	if s.findHook != nil {
		s.findHook()
	}
	if s.findErr != nil {
		return nil, s.findErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.tokens[token]
	if !ok || !r.expiresAt.After(s.now()) {
		return nil, common.ErrorNotFound
	}
	u := *s.users[r.userID]
	return &u, nil
}

func (s *fakeStore) InsertRefreshToken(_ context.Context, userID, token string, expiresAt time.Time) error {
	s.insertCalls.Add(1)
	if s.insertErr != nil {
		return s.insertErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return common.ErrorUnknownUser
	}
	s.tokens[token] = tokenRow{userID: userID, expiresAt: expiresAt}
	return nil
}

func (s *fakeStore) RotateRefreshToken(_ context.Context, userID, oldToken, newToken string, newExpiresAt, oldExpiresAt time.Time) error {
	s.rotateCalls.Add(1)
	if s.rotateErr != nil {
		return s.rotateErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.tokens[oldToken]
	if !ok || old.userID != userID || old.superseded || !old.expiresAt.After(s.now()) {
		return common.ErrorNotFound
	}
	if oldExpiresAt.Before(old.expiresAt) {
		old.expiresAt = oldExpiresAt
	}
	old.superseded = true
	s.tokens[oldToken] = old
	s.tokens[newToken] = tokenRow{userID: userID, expiresAt: newExpiresAt}
	return nil
}

func (s *fakeStore) DeleteRefreshToken(_ context.Context, token string) error {
	s.deleteCalls.Add(1)
	if s.deleteErr != nil {
		return s.deleteErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}

func (s *fakeStore) DeleteExpiredRefreshTokens(ctx context.Context) (int64, error) {
	s.purgeCalls.Add(1)
	if s.purgeHook != nil {
		s.purgeHook(ctx)
	}
	if s.purgeErr != nil {
		return 0, s.purgeErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, r := range s.tokens {
		if !r.expiresAt.After(s.now()) {
			delete(s.tokens, k)
			n++
		}
	}
	return n, nil
}

// GetByID lets the same fake serve as the users repository.
func (s *fakeStore) GetByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

// flakyNegativeCache and flakySessionCache fail every call with err and keep
// nothing.
type flakyNegativeCache struct {
	err   error
	calls atomic.Int64
}

func (c *flakyNegativeCache) IsKnownInvalid(context.Context, string) (bool, error) {
	c.calls.Add(1)
	return false, c.err
}

func (c *flakyNegativeCache) MarkInvalid(context.Context, string) error {
	c.calls.Add(1)
	return c.err
}

type flakySessionCache struct {
	getErr error
	putErr error
	puts   atomic.Int64
}

func (c *flakySessionCache) Get(context.Context, string) (*models.CachedSession, error) {
	return nil, c.getErr
}

func (c *flakySessionCache) Put(context.Context, string, *models.CachedSession) error {
	c.puts.Add(1)
	return c.putErr
}
