package persistence

import (
	"context"
)

// UnitOfWork defines transaction management operations.
// Begin opens a SERIALIZABLE transaction and returns a context carrying it; repositories obtained
// from that context take part in the transaction.
type UnitOfWork interface {
	Begin(ctx context.Context) (context.Context, error)
	// Commit may fail with ErrConcurrentUpdate when the store detects a serialization conflict
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	// InTransaction reports whether ctx already carries an open transaction
	InTransaction(ctx context.Context) bool

	GetUnitRepository(ctx context.Context) UnitRepository
	GetProjectRepository(ctx context.Context) ProjectRepository
	GetReservationRepository(ctx context.Context) ReservationRepository
	GetBookingRepository(ctx context.Context) BookingRepository
	GetDepositRepository(ctx context.Context) DepositRepository
	GetInstallmentRepository(ctx context.Context) InstallmentRepository
	GetSequenceRepository(ctx context.Context) SequenceRepository
	GetProcessingLogRepository(ctx context.Context) ProcessingLogRepository
	GetSettingRepository(ctx context.Context) SettingRepository
}
