package core

import (
	"context"
	"time"
)

// JobLocker guarantees that a named scheduled job runs on one replica at a time
type JobLocker interface {
	// TryLock attempts to take the named lock for ttl.
	// acquired is false when another holder owns a non-expired lock.
	// release must be called by the holder once the job finished.
	TryLock(ctx context.Context, name string, ttl time.Duration) (release func(), acquired bool, err error)
}
