package deposit_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/booking"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/deposit"
	"github.com/amirhossein-jamali/unit-allocator/internal/testutil/fixture"
)

var past = fixture.Start.Add(-time.Hour)

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func newOpenUnit(t *testing.T, price int64) *fixture.Env {
	env := fixture.New(t)
	env.SeedProject("p1", entity.ProjectOpen, &past)
	env.SeedUnit("u1", "p1", price, entity.UnitAvailable)
	return env
}

func approvedDeposit(t *testing.T) (*fixture.Env, *entity.Deposit, []entity.Installment) {
	env := newOpenUnit(t, 1_000_000)
	d, err := env.Deposits.Create(context.Background(), deposit.CreateInput{UnitID: "u1", AgentID: "agent-a", Amount: "100000"})
	require.NoError(t, err)
	approved, schedule, err := env.Deposits.Approve(context.Background(), d.ID, fixture.Admin())
	require.NoError(t, err)
	return env, approved, schedule
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("should hold the unit while awaiting approval", func(t *testing.T) {
		env := newOpenUnit(t, 1_000_000)

		d, err := env.Deposits.Create(ctx, deposit.CreateInput{UnitID: "u1", AgentID: "agent-a", Amount: "100000"})

		require.NoError(t, err)
		assert.Equal(t, "DP000001", d.Code)
		assert.Equal(t, entity.DepositPendingApproval, d.Status)
		assert.Equal(t, "10.00", d.DepositPercentage.StringFixed(2))
		assert.Equal(t, entity.UnitReservedBooking, env.Store.Unit("u1").Status)
		assert.True(t, env.Notified("agent-a", entity.NotifyDepositCreated))
	})

	t.Run("should validate the amount against the effective price", func(t *testing.T) {
		tests := []struct {
			name       string
			amount     string
			finalPrice string
			want       error
		}{
			{name: "below minimum", amount: "49999", want: errs.ErrAmountBelowMinimum},
			{name: "above price", amount: "1000001", want: errs.ErrAmountExceedsPrice},
			{name: "above negotiated price", amount: "900000", finalPrice: "800000", want: errs.ErrAmountExceedsPrice},
			{name: "not a number", amount: "abc", want: errs.ErrInvalidAmount},
			{name: "negative", amount: "-5", want: errs.ErrInvalidAmount},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				env := newOpenUnit(t, 1_000_000)

				_, err := env.Deposits.Create(ctx, deposit.CreateInput{
					UnitID: "u1", AgentID: "agent-a", Amount: tc.amount, FinalPrice: tc.finalPrice,
				})

				assert.ErrorIs(t, err, tc.want)
				assert.Empty(t, env.Store.Deposits("u1"))
				assert.Equal(t, entity.UnitAvailable, env.Store.Unit("u1").Status)
			})
		}
	})

	t.Run("should accept exactly the minimum of a negotiated price", func(t *testing.T) {
		env := newOpenUnit(t, 1_000_000)

		d, err := env.Deposits.Create(ctx, deposit.CreateInput{
			UnitID: "u1", AgentID: "agent-a", Amount: "40000", FinalPrice: "800000",
		})

		require.NoError(t, err)
		require.NotNil(t, d.FinalPrice)
		assert.Equal(t, "5.00", d.DepositPercentage.StringFixed(2))
	})

	t.Run("should upgrade the agent's confirmed booking", func(t *testing.T) {
		// Arrange
		env := newOpenUnit(t, 2_000_000_000)
		b, err := env.Bookings.Create(ctx, booking.CreateInput{UnitID: "u1", AgentID: "agent-a", PaymentProof: "receipt"})
		require.NoError(t, err)
		_, err = env.Bookings.Approve(ctx, b.ID, fixture.Admin())
		require.NoError(t, err)

		// Act
		d, err := env.Deposits.Create(ctx, deposit.CreateInput{UnitID: "u1", AgentID: "agent-a", Amount: "100000000"})

		// Assert
		require.NoError(t, err)
		require.NotNil(t, d.BookingID)
		assert.Equal(t, b.ID, *d.BookingID)
		assert.Equal(t, entity.BookingUpgraded, env.Store.Booking(b.ID).Status)
		assert.Equal(t, entity.UnitReservedBooking, env.Store.Unit("u1").Status)
	})

	t.Run("should refuse while the booking is not confirmed", func(t *testing.T) {
		env := newOpenUnit(t, 2_000_000_000)
		_, err := env.Bookings.Create(ctx, booking.CreateInput{UnitID: "u1", AgentID: "agent-a"})
		require.NoError(t, err)

		_, err = env.Deposits.Create(ctx, deposit.CreateInput{UnitID: "u1", AgentID: "agent-a", Amount: "100000000"})

		assert.ErrorIs(t, err, errs.ErrDuplicateClaim)
	})

	t.Run("should refuse a unit booked by someone else", func(t *testing.T) {
		env := newOpenUnit(t, 2_000_000_000)
		_, err := env.Bookings.Create(ctx, booking.CreateInput{UnitID: "u1", AgentID: "agent-a"})
		require.NoError(t, err)

		_, err = env.Deposits.Create(ctx, deposit.CreateInput{UnitID: "u1", AgentID: "agent-b", Amount: "100000000"})

		assert.ErrorIs(t, err, errs.ErrUnitAlreadyClaimed)
		assert.True(t, errs.IsConflictError(err))
	})

	t.Run("should complete the turn holder's reservation", func(t *testing.T) {
		// Arrange
		env := fixture.New(t)
		env.SeedProject("p1", entity.ProjectOpen, &past)
		env.SeedUnit("u1", "p1", 1_000_000, entity.UnitReservedBooking)
		deadline := fixture.Start.Add(48 * time.Hour)
		env.Store.SeedReservation(entity.Reservation{
			ID: "r1", Code: "RS000001", UnitID: "u1", ProjectID: "p1", AgentID: "agent-a",
			Status: entity.ReservationYourTurn, Priority: 1, ReservedUntil: deadline, DepositDeadline: &deadline,
			CreatedAt: fixture.Start,
		})
		env.Store.SeedReservation(entity.Reservation{
			ID: "r2", Code: "RS000002", UnitID: "u1", ProjectID: "p1", AgentID: "agent-b",
			Status: entity.ReservationActive, Priority: 2, ReservedUntil: past, CreatedAt: fixture.Start.Add(time.Minute),
		})

		// Act
		d, err := env.Deposits.Create(ctx, deposit.CreateInput{UnitID: "u1", AgentID: "agent-a", Amount: "100000"})

		// Assert
		require.NoError(t, err)
		require.NotNil(t, d.ReservationID)
		assert.Equal(t, entity.ReservationCompleted, env.Store.Reservation("r1").Status)
		assert.Equal(t, entity.ReservationMissed, env.Store.Reservation("r2").Status)
	})

	t.Run("should refuse a second open deposit", func(t *testing.T) {
		env := newOpenUnit(t, 1_000_000)
		_, err := env.Deposits.Create(ctx, deposit.CreateInput{UnitID: "u1", AgentID: "agent-a", Amount: "100000"})
		require.NoError(t, err)

		_, err = env.Deposits.Create(ctx, deposit.CreateInput{UnitID: "u1", AgentID: "agent-b", Amount: "100000"})

		assert.ErrorIs(t, err, errs.ErrUnitAlreadyClaimed)
	})
}

func TestService_Approve(t *testing.T) {
	ctx := context.Background()

	t.Run("should build the payment schedule and mark the unit deposited", func(t *testing.T) {
		// Arrange & Act
		env, d, schedule := approvedDeposit(t)

		// Assert
		assert.Equal(t, entity.DepositConfirmed, d.Status)
		assert.Equal(t, entity.UnitDeposited, env.Store.Unit("u1").Status)

		require.Len(t, schedule, 4)
		stored := env.Store.Installments(d.ID)
		require.Len(t, stored, 4)

		wantAmounts := []int64{100_000, 300_000, 300_000, 300_000}
		wantPcts := []int64{10, 30, 30, 30}
		for i, inst := range stored {
			assert.Equal(t, i+1, inst.Sequence)
			assert.True(t, dec(wantAmounts[i]).Equal(inst.Amount), "installment %d amount %s", i+1, inst.Amount)
			assert.True(t, dec(wantPcts[i]).Equal(inst.Percentage), "installment %d percentage %s", i+1, inst.Percentage)
		}
		assert.Equal(t, entity.InstallmentPaid, stored[0].Status)
		assert.Equal(t, entity.InstallmentPending, stored[1].Status)
		require.NotNil(t, stored[1].DueDate)
		assert.Equal(t, fixture.Start.AddDate(0, 0, 30), *stored[1].DueDate)
		require.NotNil(t, stored[2].DueDate)
		assert.Equal(t, fixture.Start.AddDate(0, 0, 60), *stored[2].DueDate)
		assert.Nil(t, stored[3].DueDate)
		assert.True(t, dec(100).Equal(entity.TotalPercentage(stored)))
	})

	t.Run("should follow a stored schedule template", func(t *testing.T) {
		env := newOpenUnit(t, 1_000_000)
		env.Store.SetSetting("deposit_payment_schedule_template",
			`[{"name":"Structure","percentage":"50","offsetDays":10},{"name":"Handover","percentage":"50"}]`)
		d, err := env.Deposits.Create(ctx, deposit.CreateInput{UnitID: "u1", AgentID: "agent-a", Amount: "200000"})
		require.NoError(t, err)

		_, schedule, err := env.Deposits.Approve(ctx, d.ID, fixture.Admin())

		require.NoError(t, err)
		require.Len(t, schedule, 3)
		assert.Equal(t, "Structure", schedule[1].Name)
		assert.True(t, dec(500_000).Equal(schedule[1].Amount))
		assert.True(t, dec(300_000).Equal(schedule[2].Amount))
		assert.True(t, dec(30).Equal(schedule[2].Percentage))
	})

	t.Run("should refuse a unit that was sold meanwhile", func(t *testing.T) {
		env := newOpenUnit(t, 1_000_000)
		d, err := env.Deposits.Create(ctx, deposit.CreateInput{UnitID: "u1", AgentID: "agent-a", Amount: "100000"})
		require.NoError(t, err)
		env.SeedUnit("u1", "p1", 1_000_000, entity.UnitSold)

		_, _, err = env.Deposits.Approve(ctx, d.ID, fixture.Admin())

		assert.ErrorIs(t, err, errs.ErrUnitSold)
		assert.Equal(t, entity.DepositPendingApproval, env.Store.Deposit(d.ID).Status)
		assert.Empty(t, env.Store.Installments(d.ID))
	})

	t.Run("should only let administrators approve", func(t *testing.T) {
		env := newOpenUnit(t, 1_000_000)
		d, err := env.Deposits.Create(ctx, deposit.CreateInput{UnitID: "u1", AgentID: "agent-a", Amount: "100000"})
		require.NoError(t, err)

		_, _, err = env.Deposits.Approve(ctx, d.ID, fixture.Agent("agent-a"))

		assert.ErrorIs(t, err, errs.ErrForbidden)
	})
}

func TestService_RejectAndCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("should reject a pending deposit and free the unit", func(t *testing.T) {
		env := newOpenUnit(t, 1_000_000)
		d, err := env.Deposits.Create(ctx, deposit.CreateInput{UnitID: "u1", AgentID: "agent-a", Amount: "100000"})
		require.NoError(t, err)

		rejected, err := env.Deposits.Reject(ctx, d.ID, fixture.Admin(), "insufficient documents")

		require.NoError(t, err)
		assert.Equal(t, entity.DepositCancelled, rejected.Status)
		assert.Equal(t, entity.UnitAvailable, env.Store.Unit("u1").Status)
		assert.True(t, env.Notified("agent-a", entity.NotifyDepositRejected))
	})

	t.Run("should not reject a confirmed deposit", func(t *testing.T) {
		env, d, _ := approvedDeposit(t)

		_, err := env.Deposits.Reject(ctx, d.ID, fixture.Admin(), "")

		assert.ErrorIs(t, err, errs.ErrInvalidTransition)
	})

	t.Run("should let the owner withdraw a pending deposit", func(t *testing.T) {
		env := newOpenUnit(t, 1_000_000)
		d, err := env.Deposits.Create(ctx, deposit.CreateInput{UnitID: "u1", AgentID: "agent-a", Amount: "100000"})
		require.NoError(t, err)

		cancelled, err := env.Deposits.Cancel(ctx, d.ID, fixture.Agent("agent-a"), "")

		require.NoError(t, err)
		assert.Equal(t, entity.DepositCancelled, cancelled.Status)
		assert.Equal(t, entity.UnitAvailable, env.Store.Unit("u1").Status)
	})

	t.Run("should keep owners from cancelling a confirmed deposit", func(t *testing.T) {
		env, d, _ := approvedDeposit(t)

		_, err := env.Deposits.Cancel(ctx, d.ID, fixture.Agent("agent-a"), "")

		assert.ErrorIs(t, err, errs.ErrForbidden)
		assert.Equal(t, entity.UnitDeposited, env.Store.Unit("u1").Status)
	})

	t.Run("should release a deposited unit when an administrator cancels", func(t *testing.T) {
		// Arrange
		env, d, _ := approvedDeposit(t)

		// Act
		_, err := env.Deposits.Cancel(ctx, d.ID, fixture.Admin(), "buyer withdrew")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, entity.UnitAvailable, env.Store.Unit("u1").Status)
		schedule := env.Store.Installments(d.ID)
		assert.Equal(t, entity.InstallmentPaid, schedule[0].Status)
		for _, inst := range schedule[1:] {
			assert.Equal(t, entity.InstallmentCancelled, inst.Status)
		}
	})
}

func TestService_Payments(t *testing.T) {
	ctx := context.Background()

	t.Run("should complete the sale when the last installment is paid", func(t *testing.T) {
		// Arrange
		env, d, schedule := approvedDeposit(t)

		// Act
		for _, inst := range schedule[1:] {
			_, err := env.Deposits.MarkInstallmentPaid(ctx, inst.ID, fixture.Admin())
			require.NoError(t, err)
		}

		// Assert
		assert.Equal(t, entity.DepositCompleted, env.Store.Deposit(d.ID).Status)
		assert.Equal(t, entity.UnitSold, env.Store.Unit("u1").Status)
		assert.True(t, entity.AllPaid(env.Store.Installments(d.ID)))
		env.Commission.AssertCalled(t, "CreateForDeposit", mock.Anything, d.ID)
		env.Commission.AssertNumberOfCalls(t, "CreateForDeposit", 1)
		assert.True(t, env.Notified("agent-a", entity.NotifyDepositCompleted))
	})

	t.Run("should refuse paying the same installment twice", func(t *testing.T) {
		env, _, schedule := approvedDeposit(t)

		_, err := env.Deposits.MarkInstallmentPaid(ctx, schedule[0].ID, fixture.Admin())

		assert.ErrorIs(t, err, errs.ErrInvalidTransition)
	})

	t.Run("should complete a sale on request", func(t *testing.T) {
		env, d, _ := approvedDeposit(t)

		completed, err := env.Deposits.CompleteSale(ctx, d.ID, fixture.Admin())

		require.NoError(t, err)
		assert.Equal(t, entity.DepositCompleted, completed.Status)
		require.NotNil(t, completed.CompletedAt)
		assert.Equal(t, entity.UnitSold, env.Store.Unit("u1").Status)
		assert.True(t, entity.AllPaid(env.Store.Installments(d.ID)))
	})

	t.Run("should flag overdue installments and recover once paid", func(t *testing.T) {
		// Arrange
		env, d, schedule := approvedDeposit(t)
		env.Clock.Advance(31 * 24 * time.Hour)

		// Act
		result, err := env.Deposits.ProcessOverduePayments(ctx)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 1, result.Processed)
		assert.Equal(t, entity.InstallmentOverdue, env.Store.Installments(d.ID)[1].Status)
		assert.Equal(t, entity.DepositOverdue, env.Store.Deposit(d.ID).Status)
		assert.Equal(t, entity.UnitDeposited, env.Store.Unit("u1").Status)
		assert.True(t, env.Notified("agent-a", entity.NotifyPaymentOverdue))

		_, err = env.Deposits.MarkInstallmentPaid(ctx, schedule[1].ID, fixture.Admin())
		require.NoError(t, err)
		assert.Equal(t, entity.DepositConfirmed, env.Store.Deposit(d.ID).Status)

		again, err := env.Deposits.ProcessOverduePayments(ctx)
		require.NoError(t, err)
		assert.Zero(t, again.Processed)
	})
}

func TestService_Cleanup(t *testing.T) {
	ctx := context.Background()

	t.Run("should cancel every open claim and free a deposited unit", func(t *testing.T) {
		// Arrange
		env, d, _ := approvedDeposit(t)

		// Act
		result, err := env.Deposits.Cleanup(ctx, "u1", fixture.Admin(), "stale data")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 1, result.CancelledDeposits)
		assert.Zero(t, result.CancelledBookings)
		assert.Equal(t, entity.UnitAvailable, result.Status)
		assert.Equal(t, entity.UnitAvailable, env.Store.Unit("u1").Status)
		assert.Equal(t, entity.DepositCancelled, env.Store.Deposit(d.ID).Status)
	})

	t.Run("should refund open bookings", func(t *testing.T) {
		env := newOpenUnit(t, 2_000_000_000)
		b, err := env.Bookings.Create(ctx, booking.CreateInput{UnitID: "u1", AgentID: "agent-a"})
		require.NoError(t, err)

		result, err := env.Deposits.Cleanup(ctx, "u1", fixture.Admin(), "")

		require.NoError(t, err)
		assert.Equal(t, 1, result.CancelledBookings)
		stored := env.Store.Booking(b.ID)
		assert.Equal(t, entity.BookingCancelled, stored.Status)
		require.NotNil(t, stored.RefundAmount)
		assert.True(t, b.Amount.Equal(*stored.RefundAmount))
		assert.Equal(t, entity.UnitAvailable, env.Store.Unit("u1").Status)
	})

	t.Run("should refuse sold units", func(t *testing.T) {
		env := fixture.New(t)
		env.SeedProject("p1", entity.ProjectOpen, &past)
		env.SeedUnit("u1", "p1", 1_000_000, entity.UnitSold)

		_, err := env.Deposits.Cleanup(ctx, "u1", fixture.Admin(), "")

		assert.ErrorIs(t, err, errs.ErrUnitSold)
	})
}
