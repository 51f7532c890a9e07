package unitstatus

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/txrunner"
	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/unit-allocator/internal/testutil"
	"github.com/amirhossein-jamali/unit-allocator/internal/testutil/memstore"
)

var fixedTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newSynchronizer() (*Synchronizer, *memstore.Store) {
	store := memstore.New()
	clock := testutil.NewFixedClock(fixedTime)
	log := logger.NewNoopLogger()
	return NewSynchronizer(txrunner.NewRunner(store, clock, log), clock, log), store
}

func seedUnit(store *memstore.Store, id string, status entity.UnitStatus) {
	store.SeedUnit(entity.Unit{ID: id, ProjectID: "p1", Price: decimal.NewFromInt(1_000_000), Status: status})
}

func seedReservation(store *memstore.Store, id, unitID string, status entity.ReservationStatus) {
	store.SeedReservation(entity.Reservation{ID: id, Code: id, UnitID: unitID, ProjectID: "p1", AgentID: "agent-" + id, Status: status})
}

func TestSynchronizer_Sync(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		status  entity.UnitStatus
		seed    func(store *memstore.Store)
		want    entity.UnitStatus
		changed bool
	}{
		{
			name:    "queued reservation holds an available unit",
			status:  entity.UnitAvailable,
			seed:    func(s *memstore.Store) { seedReservation(s, "r1", "u1", entity.ReservationActive) },
			want:    entity.UnitReservedBooking,
			changed: true,
		},
		{
			name:    "unit without claims is released",
			status:  entity.UnitReservedBooking,
			seed:    func(s *memstore.Store) { seedReservation(s, "r1", "u1", entity.ReservationExpired) },
			want:    entity.UnitAvailable,
			changed: true,
		},
		{
			name:   "open booking keeps the unit held",
			status: entity.UnitReservedBooking,
			seed: func(s *memstore.Store) {
				s.SeedBooking(entity.Booking{ID: "b1", Code: "BK000001", UnitID: "u1", Status: entity.BookingConfirmed})
			},
			want: entity.UnitReservedBooking,
		},
		{
			name:   "pending deposit holds an available unit",
			status: entity.UnitAvailable,
			seed: func(s *memstore.Store) {
				s.SeedDeposit(entity.Deposit{ID: "d1", Code: "DP000001", UnitID: "u1", Status: entity.DepositPendingApproval})
			},
			want:    entity.UnitReservedBooking,
			changed: true,
		},
		{
			name:   "overdue deposit keeps a released sticky unit held",
			status: entity.UnitReservedBooking,
			seed: func(s *memstore.Store) {
				s.SeedDeposit(entity.Deposit{ID: "d1", Code: "DP000001", UnitID: "u1", Status: entity.DepositOverdue})
			},
			want: entity.UnitReservedBooking,
		},
		{
			name:   "closed deposit releases the unit",
			status: entity.UnitReservedBooking,
			seed: func(s *memstore.Store) {
				s.SeedDeposit(entity.Deposit{ID: "d1", Code: "DP000001", UnitID: "u1", Status: entity.DepositCancelled})
			},
			want:    entity.UnitAvailable,
			changed: true,
		},
		{
			name:   "sold is sticky",
			status: entity.UnitSold,
			seed:   func(s *memstore.Store) { seedReservation(s, "r1", "u1", entity.ReservationActive) },
			want:   entity.UnitSold,
		},
		{
			name:   "deposited is sticky",
			status: entity.UnitDeposited,
			seed:   func(*memstore.Store) {},
			want:   entity.UnitDeposited,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			sync, store := newSynchronizer()
			seedUnit(store, "u1", tc.status)
			tc.seed(store)

			// Act
			status, changed, err := sync.Sync(ctx, "u1")

			// Assert
			require.NoError(t, err)
			assert.Equal(t, tc.want, status)
			assert.Equal(t, tc.changed, changed)
			assert.Equal(t, tc.want, store.Unit("u1").Status)

			again, changedAgain, err := sync.Sync(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, tc.want, again)
			assert.False(t, changedAgain)
		})
	}

	t.Run("should report a missing unit", func(t *testing.T) {
		sync, _ := newSynchronizer()

		_, _, err := sync.Sync(ctx, "missing")

		assert.ErrorIs(t, err, errs.ErrUnitNotFound)
	})
}

func TestSynchronizer_Reconcile(t *testing.T) {
	ctx := context.Background()

	// Arrange
	sync, store := newSynchronizer()
	seedUnit(store, "u1", entity.UnitReservedBooking) // drifted, no claims
	seedUnit(store, "u2", entity.UnitAvailable)       // drifted, queued reservation
	seedUnit(store, "u3", entity.UnitAvailable)       // consistent
	seedUnit(store, "u4", entity.UnitSold)            // sticky, never checked
	seedReservation(store, "r1", "u2", entity.ReservationActive)

	// Act
	result, err := sync.Reconcile(ctx, "p1")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, result.Checked)
	assert.Equal(t, 2, result.Changed)
	assert.Zero(t, result.Failed)
	assert.Equal(t, entity.UnitAvailable, store.Unit("u1").Status)
	assert.Equal(t, entity.UnitReservedBooking, store.Unit("u2").Status)
	assert.Equal(t, entity.UnitSold, store.Unit("u4").Status)
}
