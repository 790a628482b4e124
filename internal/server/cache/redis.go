package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/redis/go-redis/v9"
)

const (
	invalidKeyPrefix = "gophauth:invalid:"
	sessionKeyPrefix = "gophauth:session:"
)

// RedisNegativeCache is a NegativeCache shared by every instance pointing at
// the same Redis. Keys carry a token fingerprint, never the token itself.
type RedisNegativeCache struct {
	redis redis.UniversalClient
	ttl   time.Duration
}

func NewRedisNegativeCache(client redis.UniversalClient, ttl time.Duration) (*RedisNegativeCache, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive, got %s", ttl)
	}
	return &RedisNegativeCache{redis: client, ttl: ttl}, nil
}

func (c *RedisNegativeCache) key(token string) string {
	return invalidKeyPrefix + cryptox.Fingerprint(token)
}

func (c *RedisNegativeCache) IsKnownInvalid(ctx context.Context, token string) (bool, error) {
	n, err := c.redis.Exists(ctx, c.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

func (c *RedisNegativeCache) MarkInvalid(ctx context.Context, token string) error {
	if err := c.redis.Set(ctx, c.key(token), 1, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// RedisSessionCache is a SessionCache shared across instances. Entries are
// stored as JSON under gophauth:session:<userID>.
type RedisSessionCache struct {
	redis redis.UniversalClient
	ttl   time.Duration
}

func NewRedisSessionCache(client redis.UniversalClient, ttl time.Duration) (*RedisSessionCache, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive, got %s", ttl)
	}
	return &RedisSessionCache{redis: client, ttl: ttl}, nil
}

func (c *RedisSessionCache) key(userID string) string {
	return sessionKeyPrefix + userID
}

func (c *RedisSessionCache) Get(ctx context.Context, userID string) (*models.CachedSession, error) {
	raw, err := c.redis.Get(ctx, c.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry models.CachedSession
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("decode cached session: %w", err)
	}
	return &entry, nil
}

func (c *RedisSessionCache) Put(ctx context.Context, userID string, entry *models.CachedSession) error {
	if entry == nil {
		return fmt.Errorf("nil session cache entry for user %s", userID)
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cached session: %w", err)
	}
	if err := c.redis.Set(ctx, c.key(userID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
