// Package lock provides a Redis implementation of the scheduled job lock.
package lock

import (
	"context"
	"fmt"
	"time"

	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	coreport "github.com/amirhossein-jamali/unit-allocator/internal/domain/port/core"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// KeyPrefix namespaces job lock keys
const KeyPrefix = "unit-allocator:lock:"

const releaseTimeout = 5 * time.Second

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisJobLocker implements core.JobLocker with SET NX PX
type RedisJobLocker struct {
	client redis.UniversalClient
	logger coreport.Logger
}

// NewRedisJobLocker creates a new RedisJobLocker
func NewRedisJobLocker(client redis.UniversalClient, logger coreport.Logger) *RedisJobLocker {
	return &RedisJobLocker{client: client, logger: logger}
}

// TryLock attempts to take the named lock for ttl
func (l *RedisJobLocker) TryLock(ctx context.Context, name string, ttl time.Duration) (func(), bool, error) {
	key := KeyPrefix + name
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("%w: redis lock %s: %s", errs.ErrDatabaseConnection, name, err.Error())
	}
	if !acquired {
		l.logger.Debug("Job lock is held by another instance", map[string]any{"job": name})
		return nil, false, nil
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()

		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
			l.logger.Warn("Failed to release job lock, it will expire automatically", map[string]any{
				"job":   name,
				"error": err.Error(),
			})
		}
	}
	return release, true, nil
}

// Ping checks the connection
func (l *RedisJobLocker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}
