package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	coreport "github.com/amirhossein-jamali/unit-allocator/internal/domain/port/core"
	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/adapter/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// releaseTimeout bounds the delete issued by a lock's release func, which runs after the job context may be gone
const releaseTimeout = 5 * time.Second

// DBJobLocker implements core.JobLocker on the job_locks table.
// A lock row is taken over once its expiry passed, so a crashed holder blocks the job for at most ttl.
type DBJobLocker struct {
	db              *gorm.DB
	timeProvider    coreport.TimeProvider
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewDBJobLocker creates a new DBJobLocker instance
func NewDBJobLocker(db *gorm.DB, timeProvider coreport.TimeProvider, logger coreport.Logger) *DBJobLocker {
	return &DBJobLocker{
		db:              db,
		timeProvider:    timeProvider,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

// TryLock attempts to take the named lock for ttl
func (l *DBJobLocker) TryLock(ctx context.Context, name string, ttl time.Duration) (func(), bool, error) {
	now := l.timeProvider.Now()
	expiresAt := now.Add(ttl)
	token := uuid.NewString()

	l.logger.Debug("Attempting to acquire job lock", map[string]any{
		"job":      name,
		"duration": ttl.String(),
	})

	// Insert or take over an expired row in a single statement
	result := l.db.WithContext(ctx).Exec(`
		INSERT INTO job_locks (name, token, locked_at, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE
		SET token = EXCLUDED.token,
		    locked_at = EXCLUDED.locked_at,
		    expires_at = EXCLUDED.expires_at,
		    updated_at = EXCLUDED.updated_at
		WHERE job_locks.expires_at <= ?`,
		name, token, now, expiresAt, now, now,
		now,
	)
	if result.Error != nil {
		if isContextError(result.Error) {
			return nil, false, result.Error
		}
		return nil, false, l.errorClassifier.ToDomainError(result.Error, nil)
	}

	if result.RowsAffected == 0 {
		l.logger.Debug("Job lock is held by another instance", map[string]any{"job": name})
		return nil, false, nil
	}

	l.logger.Info("Job lock acquired", map[string]any{
		"job":        name,
		"expires_at": expiresAt,
	})

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()

		err := l.db.WithContext(releaseCtx).
			Where("name = ? AND token = ?", name, token).
			Delete(&model.JobLock{}).Error
		if err != nil {
			l.logger.Warn("Failed to release job lock, it will expire automatically", map[string]any{
				"job":   name,
				"error": err.Error(),
			})
		}
	}
	return release, true, nil
}

// CleanupExpiredLocks removes all expired locks from the database
func (l *DBJobLocker) CleanupExpiredLocks(ctx context.Context) error {
	result := l.db.WithContext(ctx).Where("expires_at < ?", l.timeProvider.Now()).Delete(&model.JobLock{})
	if result.Error != nil {
		l.logger.Error("Failed to clean up expired job locks", map[string]any{
			"error": result.Error.Error(),
		})
		return l.errorClassifier.ToDomainError(result.Error, nil)
	}

	l.logger.Info("Expired job locks cleanup completed", map[string]any{
		"locks_removed": result.RowsAffected,
	})
	return nil
}

// isContextError checks if an error is related to context timeout or cancellation
func isContextError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "context deadline exceeded") ||
		strings.Contains(errStr, "context canceled")
}
