// Package cache provides a Redis read-through cache for user attribute reads.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/coffee-match/internal/matching"
	"github.com/benvon/coffee-match/internal/metrics"
	"github.com/benvon/coffee-match/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// DefaultTTL is how long a cached user record is served
	DefaultTTL = 5 * time.Minute

	keyPrefix = "match:user:"
)

// UserCache wraps a UserReader and caches single-user reads in Redis.
// Candidate listings always go to the underlying reader.
type UserCache struct {
	next   matching.UserReader
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

var _ matching.UserReader = (*UserCache)(nil)

// NewUserCache creates a cache in front of next
func NewUserCache(next matching.UserReader, client *redis.Client, ttl time.Duration, logger *zap.Logger) *UserCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserCache{next: next, client: client, ttl: ttl, logger: logger}
}

// GetUser serves the user from Redis when present and falls back to the
// underlying reader. Redis failures degrade to an uncached read.
func (c *UserCache) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	key := keyPrefix + id.String()

	val, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var user models.User
		if err := json.Unmarshal(val, &user); err == nil {
			metrics.ProfileCacheLookups.WithLabelValues("hit").Inc()
			return &user, nil
		}
		c.logger.Warn("discarding undecodable cached user", zap.String("user_id", id.String()))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("user cache read failed", zap.String("user_id", id.String()), zap.Error(err))
	}
	metrics.ProfileCacheLookups.WithLabelValues("miss").Inc()

	user, err := c.next.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("user cache write failed", zap.String("user_id", id.String()), zap.Error(err))
	}
	return user, nil
}

// ListCandidates delegates to the underlying reader
func (c *UserCache) ListCandidates(ctx context.Context, excludeID uuid.UUID, limit int) ([]*models.User, error) {
	return c.next.ListCandidates(ctx, excludeID, limit)
}

// Invalidate drops the cached record of a user, e.g. after a profile edit
func (c *UserCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	if err := c.client.Del(ctx, keyPrefix+id.String()).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached user: %w", err)
	}
	return nil
}
