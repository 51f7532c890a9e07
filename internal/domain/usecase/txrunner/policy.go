package txrunner

import (
	"math/rand"
	"time"
)

// Policy bounds the retries and duration of a transactional operation
type Policy struct {
	MaxAttempts  int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	JitterFactor float64       // Factor to add randomness to retry intervals (0.0-1.0)
	Timeout      time.Duration // Per-attempt transaction timeout, 0 disables it
}

// CreationPolicy is used by claim creation paths: 3 attempts, 50ms x 2^attempt
func CreationPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		BaseDelay:    50 * time.Millisecond,
		MaxDelay:     time.Second,
		JitterFactor: 0.2,
		Timeout:      15 * time.Second,
	}
}

// CodeGenerationPolicy is used when the code generator runs its own transaction: 5 attempts, 10ms x 2^attempt
func CodeGenerationPolicy() Policy {
	return Policy{
		MaxAttempts:  5,
		BaseDelay:    10 * time.Millisecond,
		MaxDelay:     500 * time.Millisecond,
		JitterFactor: 0.2,
		Timeout:      5 * time.Second,
	}
}

// DefaultPolicy is used by approvals, cancellations and queue advances
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		BaseDelay:    50 * time.Millisecond,
		MaxDelay:     time.Second,
		JitterFactor: 0.2,
		Timeout:      10 * time.Second,
	}
}

// SweepPolicy is used for each record processed by a scheduled sweep
func SweepPolicy() Policy {
	p := DefaultPolicy()
	p.Timeout = 30 * time.Second
	return p
}

// BulkPolicy is used by reads over a whole project
func BulkPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		JitterFactor: 0.2,
		Timeout:      60 * time.Second,
	}
}

// Backoff computes BaseDelay * 2^attempt capped at MaxDelay, plus jitter
func Backoff(attempt int, policy Policy) time.Duration {
	backoff := policy.BaseDelay * (1 << uint(attempt))
	if policy.MaxDelay > 0 && backoff > policy.MaxDelay {
		backoff = policy.MaxDelay
	}
	if policy.JitterFactor > 0 {
		backoff += time.Duration(float64(backoff) * policy.JitterFactor * rand.Float64())
	}
	return backoff
}
