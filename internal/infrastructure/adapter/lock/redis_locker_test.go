package lock

import (
	"context"
	"os"
	"testing"
	"time"

	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/adapter/logger"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) (*RedisJobLocker, *redis.Client) {
	t.Helper()
	addr := os.Getenv("UA_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("UA_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	locker := NewRedisJobLocker(client, logger.NewNoopLogger())
	require.NoError(t, locker.Ping(context.Background()))
	return locker, client
}

func TestRedisJobLocker_TryLock(t *testing.T) {
	locker, client := newTestLocker(t)
	ctx := context.Background()
	name := "test-" + uuid.NewString()

	release, acquired, err := locker.TryLock(ctx, name, time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	_, again, err := locker.TryLock(ctx, name, time.Minute)
	require.NoError(t, err)
	assert.False(t, again, "second holder must be refused while the lock is live")

	release()
	exists, err := client.Exists(ctx, KeyPrefix+name).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)

	release2, acquired, err := locker.TryLock(ctx, name, time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)
	release2()
}

func TestRedisJobLocker_ReleaseKeepsForeignToken(t *testing.T) {
	locker, client := newTestLocker(t)
	ctx := context.Background()
	name := "test-" + uuid.NewString()

	release, acquired, err := locker.TryLock(ctx, name, time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	// Simulates expiry followed by another instance taking the lock
	require.NoError(t, client.Set(ctx, KeyPrefix+name, "other", time.Minute).Err())
	release()

	value, err := client.Get(ctx, KeyPrefix+name).Result()
	require.NoError(t, err)
	assert.Equal(t, "other", value)
	require.NoError(t, client.Del(ctx, KeyPrefix+name).Err())
}

func TestRedisJobLocker_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	locker := NewRedisJobLocker(client, logger.NewNoopLogger())

	_, acquired, err := locker.TryLock(context.Background(), "any", time.Minute)
	assert.False(t, acquired)
	assert.ErrorIs(t, err, errs.ErrDatabaseConnection)
}
