package booking_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/booking"
	"github.com/amirhossein-jamali/unit-allocator/internal/testutil/fixture"
)

const unitPrice = 2_000_000_000

var past = fixture.Start.Add(-time.Hour)

func seedReservation(env *fixture.Env, id, agentID string, priority int, status entity.ReservationStatus) {
	env.Store.SeedReservation(entity.Reservation{
		ID:            id,
		Code:          id,
		UnitID:        "u1",
		ProjectID:     "p1",
		AgentID:       agentID,
		Status:        status,
		Priority:      priority,
		ReservedUntil: fixture.Start.Add(24 * time.Hour),
		CreatedAt:     fixture.Start.Add(time.Duration(priority) * time.Minute),
		UpdatedAt:     fixture.Start,
	})
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("should let exactly one of two concurrent agents book a unit", func(t *testing.T) {
		// Arrange
		env := fixture.New(t)
		env.SeedProject("p1", entity.ProjectOpen, &past)
		env.SeedUnit("u1", "p1", unitPrice, entity.UnitAvailable)

		// Act
		var wg sync.WaitGroup
		results := make([]error, 2)
		for i, agent := range []string{"agent-a", "agent-b"} {
			wg.Add(1)
			go func(i int, agent string) {
				defer wg.Done()
				_, results[i] = env.Bookings.Create(ctx, booking.CreateInput{UnitID: "u1", AgentID: agent})
			}(i, agent)
		}
		wg.Wait()

		// Assert
		succeeded := 0
		for _, err := range results {
			if err == nil {
				succeeded++
				continue
			}
			assert.ErrorIs(t, err, errs.ErrUnitAlreadyClaimed)
			assert.True(t, errs.IsConflictError(err))
		}
		assert.Equal(t, 1, succeeded)
		assert.Len(t, env.Store.Bookings("u1"), 1)
		assert.Equal(t, entity.UnitReservedBooking, env.Store.Unit("u1").Status)
	})

	t.Run("should create a pending booking with the configured amount", func(t *testing.T) {
		env := fixture.New(t)
		env.SeedProject("p1", entity.ProjectOpen, &past)
		env.SeedUnit("u1", "p1", unitPrice, entity.UnitAvailable)

		b, err := env.Bookings.Create(ctx, booking.CreateInput{UnitID: "u1", AgentID: "agent-a"})

		require.NoError(t, err)
		assert.Equal(t, "BK000001", b.Code)
		assert.Equal(t, entity.BookingPendingPayment, b.Status)
		assert.True(t, decimal.NewFromInt(50_000_000).Equal(b.Amount))
		assert.Equal(t, fixture.Start.Add(48*time.Hour), b.ExpiresAt)
	})

	t.Run("should go straight to approval when proof is attached", func(t *testing.T) {
		env := fixture.New(t)
		env.SeedProject("p1", entity.ProjectOpen, &past)
		env.SeedUnit("u1", "p1", unitPrice, entity.UnitAvailable)

		b, err := env.Bookings.Create(ctx, booking.CreateInput{UnitID: "u1", AgentID: "agent-a", PaymentProof: "receipt-1"})

		require.NoError(t, err)
		assert.Equal(t, entity.BookingPendingApproval, b.Status)
	})

	t.Run("should upgrade the agent's reservation and close the rest of the queue", func(t *testing.T) {
		// Arrange
		env := fixture.New(t)
		openDate := fixture.Start.Add(72 * time.Hour)
		env.SeedProject("p1", entity.ProjectUpcoming, &openDate)
		env.SeedUnit("u1", "p1", unitPrice, entity.UnitReservedBooking)
		seedReservation(env, "r1", "agent-a", 1, entity.ReservationActive)
		seedReservation(env, "r2", "agent-b", 2, entity.ReservationActive)

		// Act
		b, err := env.Bookings.Create(ctx, booking.CreateInput{UnitID: "u1", AgentID: "agent-b"})

		// Assert
		require.NoError(t, err)
		require.NotNil(t, b.ReservationID)
		assert.Equal(t, "r2", *b.ReservationID)
		assert.Equal(t, entity.ReservationCompleted, env.Store.Reservation("r2").Status)
		assert.Equal(t, entity.ReservationMissed, env.Store.Reservation("r1").Status)
		assert.True(t, env.Notified("agent-a", entity.NotifyReservationMissed))
	})

	t.Run("should refuse agents without a reservation before the project opens", func(t *testing.T) {
		env := fixture.New(t)
		env.SeedProject("p1", entity.ProjectUpcoming, nil)
		env.SeedUnit("u1", "p1", unitPrice, entity.UnitAvailable)

		_, err := env.Bookings.Create(ctx, booking.CreateInput{UnitID: "u1", AgentID: "agent-a"})

		assert.ErrorIs(t, err, errs.ErrProjectPhase)
	})

	t.Run("should keep the turn holder's priority", func(t *testing.T) {
		// Arrange
		env := fixture.New(t)
		env.SeedProject("p1", entity.ProjectOpen, &past)
		env.SeedUnit("u1", "p1", unitPrice, entity.UnitReservedBooking)
		seedReservation(env, "r1", "agent-a", 1, entity.ReservationYourTurn)
		seedReservation(env, "r2", "agent-b", 2, entity.ReservationActive)

		// Act
		_, err := env.Bookings.Create(ctx, booking.CreateInput{UnitID: "u1", AgentID: "agent-b"})

		// Assert
		assert.ErrorIs(t, err, errs.ErrUnitAlreadyClaimed)
		assert.Empty(t, env.Store.Bookings("u1"))
		assert.Equal(t, entity.ReservationActive, env.Store.Reservation("r2").Status)
	})

	t.Run("should report a duplicate booking by the same agent", func(t *testing.T) {
		env := fixture.New(t)
		env.SeedProject("p1", entity.ProjectOpen, &past)
		env.SeedUnit("u1", "p1", unitPrice, entity.UnitReservedBooking)
		seedReservation(env, "r1", "agent-a", 1, entity.ReservationYourTurn)
		_, err := env.Bookings.Create(ctx, booking.CreateInput{UnitID: "u1", AgentID: "agent-a"})
		require.NoError(t, err)
		seedReservation(env, "r3", "agent-a", 3, entity.ReservationYourTurn)

		_, err = env.Bookings.Create(ctx, booking.CreateInput{UnitID: "u1", AgentID: "agent-a"})

		assert.ErrorIs(t, err, errs.ErrDuplicateClaim)
	})

	t.Run("should reject sold units", func(t *testing.T) {
		env := fixture.New(t)
		env.SeedProject("p1", entity.ProjectOpen, &past)
		env.SeedUnit("u1", "p1", unitPrice, entity.UnitSold)

		_, err := env.Bookings.Create(ctx, booking.CreateInput{UnitID: "u1", AgentID: "agent-a"})

		assert.ErrorIs(t, err, errs.ErrUnitSold)
	})
}

func TestService_Lifecycle(t *testing.T) {
	ctx := context.Background()

	newBooking := func(t *testing.T) (*fixture.Env, *entity.Booking) {
		env := fixture.New(t)
		env.SeedProject("p1", entity.ProjectOpen, &past)
		env.SeedUnit("u1", "p1", unitPrice, entity.UnitAvailable)
		b, err := env.Bookings.Create(ctx, booking.CreateInput{UnitID: "u1", AgentID: "agent-a"})
		require.NoError(t, err)
		return env, b
	}

	t.Run("should confirm and refund half on cancellation", func(t *testing.T) {
		// Arrange
		env, b := newBooking(t)

		// Act
		_, err := env.Bookings.SubmitPayment(ctx, b.ID, fixture.Agent("agent-a"), "receipt-1")
		require.NoError(t, err)
		approved, err := env.Bookings.Approve(ctx, b.ID, fixture.Admin())
		require.NoError(t, err)
		cancelled, err := env.Bookings.Cancel(ctx, b.ID, fixture.Agent("agent-a"), "found another unit")
		require.NoError(t, err)

		// Assert
		assert.Equal(t, entity.BookingConfirmed, approved.Status)
		assert.Equal(t, fixture.AdminID, approved.ApprovedBy)
		assert.Equal(t, entity.BookingCancelled, cancelled.Status)
		require.NotNil(t, cancelled.RefundAmount)
		assert.True(t, decimal.NewFromInt(25_000_000).Equal(*cancelled.RefundAmount))
		assert.Equal(t, entity.UnitAvailable, env.Store.Unit("u1").Status)
		assert.True(t, env.Notified("agent-a", entity.NotifyBookingApproved))
	})

	t.Run("should refund everything before confirmation", func(t *testing.T) {
		env, b := newBooking(t)

		cancelled, err := env.Bookings.Cancel(ctx, b.ID, fixture.Agent("agent-a"), "")

		require.NoError(t, err)
		assert.True(t, b.Amount.Equal(*cancelled.RefundAmount))
	})

	t.Run("should refund in full on rejection", func(t *testing.T) {
		env, b := newBooking(t)
		_, err := env.Bookings.SubmitPayment(ctx, b.ID, fixture.Agent("agent-a"), "receipt-1")
		require.NoError(t, err)

		rejected, err := env.Bookings.Reject(ctx, b.ID, fixture.Admin(), "unreadable receipt")

		require.NoError(t, err)
		assert.Equal(t, entity.BookingCancelled, rejected.Status)
		assert.True(t, b.Amount.Equal(*rejected.RefundAmount))
		assert.True(t, env.Notified("agent-a", entity.NotifyBookingRejected))
	})

	t.Run("should only let administrators approve", func(t *testing.T) {
		env, b := newBooking(t)

		_, err := env.Bookings.Approve(ctx, b.ID, fixture.Agent("agent-a"))

		assert.ErrorIs(t, err, errs.ErrForbidden)
	})

	t.Run("should not approve a booking without payment", func(t *testing.T) {
		env, b := newBooking(t)

		_, err := env.Bookings.Approve(ctx, b.ID, fixture.Admin())

		var transitionErr *errs.InvalidTransitionError
		require.ErrorAs(t, err, &transitionErr)
		assert.Equal(t, string(entity.BookingPendingPayment), transitionErr.From)
	})

	t.Run("should require payment proof", func(t *testing.T) {
		env, b := newBooking(t)

		_, err := env.Bookings.SubmitPayment(ctx, b.ID, fixture.Agent("agent-a"), " ")

		assert.ErrorIs(t, err, errs.ErrInvalidRequest)
	})

	t.Run("should report unknown bookings", func(t *testing.T) {
		env := fixture.New(t)

		_, err := env.Bookings.Cancel(ctx, "missing", fixture.Admin(), "")

		assert.True(t, errs.IsNotFoundError(err))
	})
}

func TestService_ExpireBookings(t *testing.T) {
	ctx := context.Background()

	// Arrange
	env := fixture.New(t)
	env.SeedProject("p1", entity.ProjectOpen, &past)
	env.SeedUnit("u1", "p1", unitPrice, entity.UnitAvailable)
	env.SeedUnit("u2", "p1", unitPrice, entity.UnitAvailable)
	pending, err := env.Bookings.Create(ctx, booking.CreateInput{UnitID: "u1", AgentID: "agent-a"})
	require.NoError(t, err)
	confirmed, err := env.Bookings.Create(ctx, booking.CreateInput{UnitID: "u2", AgentID: "agent-b", PaymentProof: "receipt"})
	require.NoError(t, err)
	_, err = env.Bookings.Approve(ctx, confirmed.ID, fixture.Admin())
	require.NoError(t, err)
	env.Clock.Advance(49 * time.Hour)

	// Act
	result, err := env.Bookings.ExpireBookings(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, entity.BookingExpired, env.Store.Booking(pending.ID).Status)
	assert.Equal(t, entity.BookingConfirmed, env.Store.Booking(confirmed.ID).Status)
	assert.Equal(t, entity.UnitAvailable, env.Store.Unit("u1").Status)
	assert.Equal(t, entity.UnitReservedBooking, env.Store.Unit("u2").Status)
	assert.True(t, env.Notified("agent-a", entity.NotifyBookingExpired))
}
