package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/unitstatus"
	"github.com/amirhossein-jamali/unit-allocator/internal/testutil"
	mockcore "github.com/amirhossein-jamali/unit-allocator/mocks/port/core"
)

type fakeSweeper struct {
	calls     map[string]int
	result    usecase.SweepResult
	err       error
	projectID string
}

func (f *fakeSweeper) record(name string) (usecase.SweepResult, error) {
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
	return f.result, f.err
}

func (f *fakeSweeper) ExpireReservations(context.Context) (usecase.SweepResult, error) {
	return f.record(ReservationExpiry)
}

func (f *fakeSweeper) ProcessMissedTurns(context.Context) (usecase.SweepResult, error) {
	return f.record(MissedTurns)
}

func (f *fakeSweeper) ExpireBookings(context.Context) (usecase.SweepResult, error) {
	return f.record(BookingExpiry)
}

func (f *fakeSweeper) ProcessOverduePayments(context.Context) (usecase.SweepResult, error) {
	return f.record(OverduePayments)
}

func (f *fakeSweeper) Reconcile(_ context.Context, projectID string) (unitstatus.ReconcileResult, error) {
	f.projectID = projectID
	_, err := f.record(Reconcile)
	return unitstatus.ReconcileResult{}, err
}

func newCatalog(t *testing.T) (*Catalog, *fakeSweeper, *mockcore.MockJobLocker) {
	sweeper := &fakeSweeper{result: usecase.SweepResult{Processed: 3, Failed: 1}}
	locker := mockcore.NewMockJobLocker(t)
	logger := mockcore.NewMockLogger(t)
	logger.EXPECT().Info(mock.Anything, mock.Anything).Maybe()
	logger.EXPECT().Debug(mock.Anything, mock.Anything).Maybe()
	logger.EXPECT().Error(mock.Anything, mock.Anything).Maybe()

	clock := testutil.NewFixedClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	catalog := NewCatalog(sweeper, sweeper, sweeper, sweeper, DefaultIntervals(), locker, clock, logger)
	return catalog, sweeper, locker
}

func TestCatalog_Registry(t *testing.T) {
	catalog, _, _ := newCatalog(t)

	assert.Equal(t, []string{BookingExpiry, MissedTurns, OverduePayments, Reconcile, ReservationExpiry}, catalog.Names())

	scheduled := catalog.Scheduled()
	names := make([]string, 0, len(scheduled))
	for _, job := range scheduled {
		names = append(names, job.Name)
	}
	assert.Equal(t, []string{MissedTurns, OverduePayments, ReservationExpiry}, names)
}

func TestCatalog_RunOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("should run the job under its lock", func(t *testing.T) {
		catalog, sweeper, locker := newCatalog(t)
		released := false
		locker.EXPECT().TryLock(ctx, "job:"+MissedTurns, 30*time.Minute).
			Return(func() { released = true }, true, nil).Once()

		report, err := catalog.RunOnce(ctx, MissedTurns)

		require.NoError(t, err)
		assert.False(t, report.Skipped)
		assert.Equal(t, usecase.SweepResult{Processed: 3, Failed: 1}, report.Result)
		assert.Equal(t, 1, sweeper.calls[MissedTurns])
		assert.True(t, released)
	})

	t.Run("should use the default ttl for on-demand jobs", func(t *testing.T) {
		catalog, sweeper, locker := newCatalog(t)
		locker.EXPECT().TryLock(ctx, "job:"+Reconcile, defaultLockTTL).Return(func() {}, true, nil).Once()

		_, err := catalog.RunOnce(ctx, Reconcile)

		require.NoError(t, err)
		assert.Equal(t, "", sweeper.projectID)
		assert.Equal(t, 1, sweeper.calls[Reconcile])
	})

	t.Run("should skip when another replica holds the lock", func(t *testing.T) {
		catalog, sweeper, locker := newCatalog(t)
		locker.EXPECT().TryLock(ctx, "job:"+ReservationExpiry, time.Hour).Return(nil, false, nil).Once()

		report, err := catalog.RunOnce(ctx, ReservationExpiry)

		require.NoError(t, err)
		assert.True(t, report.Skipped)
		assert.Zero(t, sweeper.calls[ReservationExpiry])
	})

	t.Run("should release the lock when the job fails", func(t *testing.T) {
		catalog, sweeper, locker := newCatalog(t)
		sweeper.err = errors.New("database unavailable")
		released := false
		locker.EXPECT().TryLock(ctx, "job:"+BookingExpiry, defaultLockTTL).
			Return(func() { released = true }, true, nil).Once()

		_, err := catalog.RunOnce(ctx, BookingExpiry)

		assert.EqualError(t, err, "database unavailable")
		assert.True(t, released)
	})

	t.Run("should surface lock errors", func(t *testing.T) {
		catalog, _, locker := newCatalog(t)
		locker.EXPECT().TryLock(ctx, "job:"+OverduePayments, time.Hour).Return(nil, false, errors.New("redis down")).Once()

		_, err := catalog.RunOnce(ctx, OverduePayments)

		assert.ErrorContains(t, err, "redis down")
	})

	t.Run("should reject unknown jobs", func(t *testing.T) {
		catalog, _, _ := newCatalog(t)

		_, err := catalog.RunOnce(ctx, "vacuum")

		assert.ErrorIs(t, err, errs.ErrInvalidRequest)
	})
}

func TestScheduler_Run(t *testing.T) {
	catalog, sweeper, locker := newCatalog(t)
	catalog.jobs = map[string]Job{}
	ran := make(chan struct{}, 1)
	catalog.Register(Job{Name: "tick", Interval: 5 * time.Millisecond, Run: func(context.Context) (any, error) {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil, nil
	}})
	locker.EXPECT().TryLock(mock.Anything, "job:tick", 5*time.Millisecond).Return(func() {}, true, nil)

	logger := mockcore.NewMockLogger(t)
	logger.EXPECT().Info(mock.Anything, mock.Anything).Maybe()
	logger.EXPECT().Warn(mock.Anything, mock.Anything).Maybe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewScheduler(catalog, logger).Run(ctx)
		close(done)
	}()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled job never ran")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Empty(t, sweeper.calls)
}
