package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhadat/listing-auth/internal/models"
)

// Requires Redis running on localhost:6379; skipped otherwise.
const testRedisAddr = "localhost:6379"

func setupTestCache(t *testing.T) *Redis {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}

	prefix := "test:profile:" + t.Name() + ":"
	c := NewRedis(client, prefix, time.Minute)
	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, prefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})
	return c
}

func TestRedisRoundTrip(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()

	_, hit, err := c.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.False(t, hit)

	p := models.Profile{ID: "u-1", Email: "a@x.com", FullName: "Nguyen Van A", RoleName: models.RoleUser, RoleID: 2}
	require.NoError(t, c.Set(ctx, p))

	got, hit, err := c.Get(ctx, "u-1")
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, p.Email, got.Email)
	assert.Equal(t, p.RoleID, got.RoleID)

	require.NoError(t, c.Delete(ctx, "u-1"))
	_, hit, err = c.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisRespectsTTL(t *testing.T) {
	c := setupTestCache(t)
	c.ttl = 50 * time.Millisecond
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, models.Profile{ID: "u-2"}))
	time.Sleep(150 * time.Millisecond)

	_, hit, err := c.Get(ctx, "u-2")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestNewRedisDefaultPrefix(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	defer client.Close()

	assert.Equal(t, DefaultPrefix, NewRedis(client, "", time.Minute).prefix)
}

func TestDialRejectsBadURL(t *testing.T) {
	_, err := Dial(context.Background(), "not a url", time.Minute)
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	var c Noop
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, models.Profile{ID: "u-1"}))
	_, hit, err := c.Get(ctx, "u-1")
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, c.Delete(ctx, "u-1"))
}
