package txrunner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	"github.com/amirhossein-jamali/unit-allocator/internal/testutil"
	"github.com/amirhossein-jamali/unit-allocator/internal/testutil/memstore"
	mockcore "github.com/amirhossein-jamali/unit-allocator/mocks/port/core"
)

var fixedTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newRunner(t *testing.T) (*Runner, *memstore.Store, *mockcore.MockLogger) {
	store := memstore.New()
	logger := mockcore.NewMockLogger(t)
	return NewRunner(store, testutil.NewFixedClock(fixedTime), logger), store, logger
}

func TestRunner_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("should commit a successful operation once", func(t *testing.T) {
		runner, store, _ := newRunner(t)
		calls := 0

		err := runner.Run(ctx, "op", DefaultPolicy(), func(ctx context.Context) error {
			calls++
			assert.True(t, store.InTransaction(ctx))
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.Equal(t, 1, store.Commits())
	})

	t.Run("should retry serialization conflicts", func(t *testing.T) {
		runner, store, logger := newRunner(t)
		logger.EXPECT().Warn("Serialization conflict, retrying operation", mock.Anything).Times(2)
		store.InjectCommitConflicts(2)
		calls := 0

		err := runner.Run(ctx, "op", DefaultPolicy(), func(ctx context.Context) error {
			calls++
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, 1, store.Commits())
	})

	t.Run("should stop after the attempt budget", func(t *testing.T) {
		runner, store, logger := newRunner(t)
		logger.EXPECT().Warn(mock.Anything, mock.Anything).Maybe()
		logger.EXPECT().Error("All retry attempts failed", mock.Anything).Once()
		store.InjectCommitConflicts(10)

		err := runner.Run(ctx, "reservation.create", CreationPolicy(), func(ctx context.Context) error {
			return nil
		})

		var exhausted *errs.RetryExhaustedError
		require.ErrorAs(t, err, &exhausted)
		assert.Equal(t, 3, exhausted.Attempts)
		assert.Equal(t, "reservation.create", exhausted.Operation)
		assert.ErrorIs(t, err, errs.ErrRetryLater)
		assert.Equal(t, errs.CategoryConcurrency, errs.Classify(err))
	})

	t.Run("should not retry other errors", func(t *testing.T) {
		runner, store, _ := newRunner(t)
		calls := 0

		err := runner.Run(ctx, "op", DefaultPolicy(), func(ctx context.Context) error {
			calls++
			return errs.ErrUnitSold
		})

		assert.ErrorIs(t, err, errs.ErrUnitSold)
		assert.Equal(t, 1, calls)
		assert.Zero(t, store.Commits())
	})

	t.Run("should retry conflicts raised by the operation", func(t *testing.T) {
		runner, _, logger := newRunner(t)
		logger.EXPECT().Warn(mock.Anything, mock.Anything).Maybe()
		calls := 0

		err := runner.Run(ctx, "op", DefaultPolicy(), func(ctx context.Context) error {
			calls++
			if calls == 1 {
				return errs.ErrConcurrentUpdate
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("should join an open transaction", func(t *testing.T) {
		runner, store, _ := newRunner(t)

		err := runner.Run(ctx, "outer", DefaultPolicy(), func(outer context.Context) error {
			return runner.Run(outer, "inner", DefaultPolicy(), func(inner context.Context) error {
				assert.Equal(t, outer, inner)
				return nil
			})
		})

		require.NoError(t, err)
		assert.Equal(t, 1, store.Commits())
	})

	t.Run("should honour a cancelled context between attempts", func(t *testing.T) {
		runner, store, logger := newRunner(t)
		logger.EXPECT().Warn(mock.Anything, mock.Anything).Maybe()
		store.InjectCommitConflicts(1)
		cctx, cancel := context.WithCancel(ctx)

		err := runner.Run(cctx, "op", Policy{MaxAttempts: 3, BaseDelay: time.Hour}, func(ctx context.Context) error {
			cancel()
			return nil
		})

		// The fixed clock fires immediately, so either the retry or the cancellation wins
		if err != nil {
			assert.ErrorIs(t, err, context.Canceled)
		}
	})
}

func TestRunner_AfterCommit(t *testing.T) {
	ctx := context.Background()

	t.Run("should run tasks only after commit", func(t *testing.T) {
		runner, store, _ := newRunner(t)
		var order []string

		err := runner.Run(ctx, "op", DefaultPolicy(), func(ctx context.Context) error {
			runner.AfterCommit(ctx, "first", nil, func(ctx context.Context) error {
				assert.False(t, store.InTransaction(ctx))
				order = append(order, "first")
				return nil
			})
			runner.AfterCommit(ctx, "second", nil, func(context.Context) error {
				order = append(order, "second")
				return nil
			})
			order = append(order, "body")
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"body", "first", "second"}, order)
	})

	t.Run("should drop tasks of a rolled back attempt", func(t *testing.T) {
		runner, store, logger := newRunner(t)
		logger.EXPECT().Warn(mock.Anything, mock.Anything).Maybe()
		store.InjectCommitConflicts(1)
		runs := 0

		err := runner.Run(ctx, "op", DefaultPolicy(), func(ctx context.Context) error {
			runner.AfterCommit(ctx, "notify", nil, func(context.Context) error {
				runs++
				return nil
			})
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, runs)
	})

	t.Run("should register nested tasks on the outer transaction", func(t *testing.T) {
		runner, _, _ := newRunner(t)
		ran := false

		err := runner.Run(ctx, "outer", DefaultPolicy(), func(outer context.Context) error {
			_ = runner.Run(outer, "inner", DefaultPolicy(), func(inner context.Context) error {
				runner.AfterCommit(inner, "task", nil, func(context.Context) error {
					ran = true
					return nil
				})
				return nil
			})
			assert.False(t, ran)
			return nil
		})

		require.NoError(t, err)
		assert.True(t, ran)
	})

	t.Run("should log failing and panicking tasks without failing the operation", func(t *testing.T) {
		runner, _, logger := newRunner(t)
		logger.EXPECT().Warn("Post-commit task failed", mock.MatchedBy(func(fields map[string]any) bool {
			return fields["task"] == "audit.record" && fields["entityId"] == "d1" && fields["operation"] == "op"
		})).Once()
		logger.EXPECT().Error("Post-commit task panicked", mock.MatchedBy(func(fields map[string]any) bool {
			return fields["task"] == "notification.send"
		})).Once()

		err := runner.Run(ctx, "op", DefaultPolicy(), func(ctx context.Context) error {
			runner.AfterCommit(ctx, "audit.record", map[string]any{"entityId": "d1"}, func(context.Context) error {
				return errors.New("audit store down")
			})
			runner.AfterCommit(ctx, "notification.send", nil, func(context.Context) error {
				panic("broker gone")
			})
			return nil
		})

		assert.NoError(t, err)
	})

	t.Run("should run immediately outside a transaction", func(t *testing.T) {
		runner, _, _ := newRunner(t)
		ran := false

		runner.AfterCommit(ctx, "task", nil, func(context.Context) error {
			ran = true
			return nil
		})

		assert.True(t, ran)
	})
}

func TestBackoff(t *testing.T) {
	policy := Policy{BaseDelay: 50 * time.Millisecond, MaxDelay: time.Second}

	assert.Equal(t, 50*time.Millisecond, Backoff(0, policy))
	assert.Equal(t, 100*time.Millisecond, Backoff(1, policy))
	assert.Equal(t, 200*time.Millisecond, Backoff(2, policy))
	assert.Equal(t, time.Second, Backoff(10, policy))

	policy.JitterFactor = 0.2
	for attempt := 0; attempt < 5; attempt++ {
		base := Backoff(attempt, Policy{BaseDelay: policy.BaseDelay, MaxDelay: policy.MaxDelay})
		got := Backoff(attempt, policy)
		assert.GreaterOrEqual(t, got, base)
		assert.LessOrEqual(t, got, base+time.Duration(float64(base)*0.2))
	}
}
