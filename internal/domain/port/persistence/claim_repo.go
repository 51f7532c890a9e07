package persistence

import (
	"context"
	"time"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
)

// ReservationRepository defines access to reservation queues
type ReservationRepository interface {
	// Create inserts a reservation
	//
	// Possible errors:
	// - ErrDuplicateKey: If the code or the (unit, agent) active pair already exists
	Create(ctx context.Context, reservation *entity.Reservation) error

	// GetByID retrieves a reservation
	//
	// Possible errors:
	// - ErrReservationNotFound: If the reservation doesn't exist
	GetByID(ctx context.Context, id string) (*entity.Reservation, error)

	// Update persists status, queue and cancellation fields
	Update(ctx context.Context, reservation *entity.Reservation) error

	// FindQueuedByUnitAndAgent returns the agent's ACTIVE or YOUR_TURN reservation on the unit, or nil
	FindQueuedByUnitAndAgent(ctx context.Context, unitID, agentID string) (*entity.Reservation, error)

	// CountByUnit counts the unit's reservations having one of the statuses
	CountByUnit(ctx context.Context, unitID string, statuses []entity.ReservationStatus) (int64, error)

	// NextActive returns the ACTIVE reservation with the lowest (priority, createdAt), or nil
	NextActive(ctx context.Context, unitID string) (*entity.Reservation, error)

	// ListQueuedByUnit lists the unit's ACTIVE and YOUR_TURN reservations in queue order
	ListQueuedByUnit(ctx context.Context, unitID string) ([]*entity.Reservation, error)

	// ListPastExpiry lists reservations with reservedUntil before now that are either YOUR_TURN,
	// or ACTIVE on a project that has not opened yet. ACTIVE tickets of an open project wait for
	// their turn instead of expiring.
	ListPastExpiry(ctx context.Context, now time.Time, limit int) ([]*entity.Reservation, error)

	// ListPastDepositDeadline lists YOUR_TURN reservations with depositDeadline before now
	ListPastDepositDeadline(ctx context.Context, now time.Time, limit int) ([]*entity.Reservation, error)
}

// BookingRepository defines access to bookings
type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error

	// GetByID retrieves a booking
	//
	// Possible errors:
	// - ErrBookingNotFound: If the booking doesn't exist
	GetByID(ctx context.Context, id string) (*entity.Booking, error)

	Update(ctx context.Context, booking *entity.Booking) error

	// FindOpenByUnit returns the unit's non-terminal booking, or nil
	FindOpenByUnit(ctx context.Context, unitID string) (*entity.Booking, error)

	// ListOpenByUnit lists every non-terminal booking of the unit
	ListOpenByUnit(ctx context.Context, unitID string) ([]*entity.Booking, error)

	// CountByUnit counts the unit's bookings having one of the statuses
	CountByUnit(ctx context.Context, unitID string, statuses []entity.BookingStatus) (int64, error)

	// ListPastExpiry lists PENDING_PAYMENT and PENDING_APPROVAL bookings with expiresAt before now
	ListPastExpiry(ctx context.Context, now time.Time, limit int) ([]*entity.Booking, error)
}

// DepositRepository defines access to deposits
type DepositRepository interface {
	Create(ctx context.Context, deposit *entity.Deposit) error

	// GetByID retrieves a deposit
	//
	// Possible errors:
	// - ErrDepositNotFound: If the deposit doesn't exist
	GetByID(ctx context.Context, id string) (*entity.Deposit, error)

	Update(ctx context.Context, deposit *entity.Deposit) error

	// FindOpenByUnit returns the unit's non-terminal deposit, or nil
	FindOpenByUnit(ctx context.Context, unitID string) (*entity.Deposit, error)

	// ListOpenByUnit lists every non-terminal deposit of the unit
	ListOpenByUnit(ctx context.Context, unitID string) ([]*entity.Deposit, error)

	// CountByUnit counts the unit's deposits having one of the statuses
	CountByUnit(ctx context.Context, unitID string, statuses []entity.DepositStatus) (int64, error)
}

// InstallmentRepository defines access to payment schedules
type InstallmentRepository interface {
	CreateBatch(ctx context.Context, installments []entity.Installment) error

	// GetByID retrieves an installment
	//
	// Possible errors:
	// - ErrInstallmentNotFound: If the installment doesn't exist
	GetByID(ctx context.Context, id string) (*entity.Installment, error)

	Update(ctx context.Context, installment *entity.Installment) error

	// ListByDeposit lists a deposit's schedule ordered by sequence
	ListByDeposit(ctx context.Context, depositID string) ([]entity.Installment, error)

	// ListPastDue lists PENDING installments with a due date before now
	ListPastDue(ctx context.Context, now time.Time, limit int) ([]entity.Installment, error)
}
