package cache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/benvon/coffee-match/internal/matching"
	"github.com/benvon/coffee-match/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReader struct {
	users map[uuid.UUID]*models.User
	gets  atomic.Int32
}

func (r *countingReader) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.gets.Add(1)
	u, ok := r.users[id]
	if !ok {
		return nil, matching.NewNotFound("user", id)
	}
	c := *u
	return &c, nil
}

func (r *countingReader) ListCandidates(_ context.Context, excludeID uuid.UUID, _ int) ([]*models.User, error) {
	var out []*models.User
	for id, u := range r.users {
		if id != excludeID {
			out = append(out, u)
		}
	}
	return out, nil
}

var _ matching.UserReader = (*countingReader)(nil)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestUserCache_ReadThrough(t *testing.T) {
	t.Parallel()

	mr, client := setupRedis(t)
	industry := "Tech"
	user := &models.User{ID: uuid.New(), Name: "ana", Industry: &industry}
	reader := &countingReader{users: map[uuid.UUID]*models.User{user.ID: user}}
	c := NewUserCache(reader, client, time.Minute, nil)
	ctx := context.Background()

	first, err := c.GetUser(ctx, user.ID)
	require.NoError(t, err)
	second, err := c.GetUser(ctx, user.ID)
	require.NoError(t, err)

	assert.Equal(t, int32(1), reader.gets.Load())
	assert.Equal(t, first.IndustryText(), second.IndustryText())
	assert.True(t, mr.Exists(keyPrefix+user.ID.String()))

	mr.FastForward(2 * time.Minute)
	_, err = c.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), reader.gets.Load(), "expired entries are re-read")

	require.NoError(t, c.Invalidate(ctx, user.ID))
	assert.False(t, mr.Exists(keyPrefix+user.ID.String()))
}

func TestUserCache_NotFoundIsNotCached(t *testing.T) {
	t.Parallel()

	mr, client := setupRedis(t)
	reader := &countingReader{users: map[uuid.UUID]*models.User{}}
	c := NewUserCache(reader, client, 0, nil)
	missing := uuid.New()

	_, err := c.GetUser(context.Background(), missing)
	assert.ErrorIs(t, err, matching.ErrNotFound)
	assert.False(t, mr.Exists(keyPrefix+missing.String()))
}

func TestUserCache_RedisDown(t *testing.T) {
	t.Parallel()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	user := &models.User{ID: uuid.New(), Name: "ben"}
	reader := &countingReader{users: map[uuid.UUID]*models.User{user.ID: user}}
	c := NewUserCache(reader, client, time.Minute, nil)

	mr.Close()

	got, err := c.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestConnect(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	require.NoError(t, client.Close())

	_, err = Connect(context.Background(), "not a url")
	require.Error(t, err)
}
