package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	coreport "github.com/amirhossein-jamali/unit-allocator/internal/domain/port/core"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/adapter/repository"
	"gorm.io/gorm"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// Context keys
const txKey contextKey = "tx"

// errNoTransaction is returned by Commit and Rollback when ctx carries no transaction
var errNoTransaction = errors.New("no transaction found in context")

// UnitOfWork implements the unit of work pattern for database transactions
type UnitOfWork struct {
	db              *gorm.DB
	logger          coreport.Logger
	timeProvider    coreport.TimeProvider
	errorClassifier *repository.ErrorClassifier
}

// NewUnitOfWork creates a new UnitOfWork instance
func NewUnitOfWork(db *gorm.DB, logger coreport.Logger, timeProvider coreport.TimeProvider) *UnitOfWork {
	return &UnitOfWork{
		db:              db,
		logger:          logger,
		timeProvider:    timeProvider,
		errorClassifier: repository.NewErrorClassifier(),
	}
}

// Begin starts a new SERIALIZABLE database transaction
func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	u.logger.Debug("Beginning database transaction with SERIALIZABLE isolation", nil)

	tx := u.db.WithContext(ctx).Begin(&sql.TxOptions{Isolation: sql.LevelSerializable})
	if tx.Error != nil {
		u.logger.Error("Failed to begin transaction", map[string]any{"error": tx.Error.Error()})
		return ctx, fmt.Errorf("failed to begin transaction: %w", u.errorClassifier.ToDomainError(tx.Error, nil))
	}

	return context.WithValue(ctx, txKey, tx), nil
}

// Commit commits the current transaction.
// A serialization failure reported at commit time is returned as ErrConcurrentUpdate.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	if !ok || tx == nil {
		return errNoTransaction
	}

	u.logger.Debug("Committing database transaction", nil)
	if err := tx.Commit().Error; err != nil {
		mapped := u.errorClassifier.ToDomainError(err, nil)
		if u.errorClassifier.IsSerializationError(err) {
			u.logger.Debug("Commit lost a serialization race", map[string]any{"error": err.Error()})
		} else {
			u.logger.Error("Failed to commit transaction", map[string]any{"error": err.Error()})
		}
		return fmt.Errorf("failed to commit transaction: %w", mapped)
	}

	return nil
}

// Rollback rolls back the current transaction
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	if !ok || tx == nil {
		return errNoTransaction
	}

	u.logger.Debug("Rolling back database transaction", nil)

	err := tx.Rollback().Error

	// Already finished transactions are not an error
	if err != nil && (errors.Is(err, sql.ErrTxDone) || strings.Contains(err.Error(), "already been committed or rolled back")) {
		u.logger.Warn("Transaction has already been committed or rolled back", map[string]any{
			"error": err.Error(),
		})
		return nil
	}

	if err != nil {
		u.logger.Error("Failed to rollback transaction", map[string]any{
			"error": err.Error(),
		})
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	return nil
}

// InTransaction reports whether ctx carries an open transaction
func (u *UnitOfWork) InTransaction(ctx context.Context) bool {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	return ok && tx != nil
}

// GetUnitRepository returns a unit repository in the current transaction
func (u *UnitOfWork) GetUnitRepository(ctx context.Context) persistence.UnitRepository {
	return repository.NewUnitRepository(u.getDbFromContext(ctx), u.logger)
}

// GetProjectRepository returns a project repository in the current transaction
func (u *UnitOfWork) GetProjectRepository(ctx context.Context) persistence.ProjectRepository {
	return repository.NewProjectRepository(u.getDbFromContext(ctx), u.logger)
}

// GetReservationRepository returns a reservation repository in the current transaction
func (u *UnitOfWork) GetReservationRepository(ctx context.Context) persistence.ReservationRepository {
	return repository.NewReservationRepository(u.getDbFromContext(ctx), u.logger)
}

// GetBookingRepository returns a booking repository in the current transaction
func (u *UnitOfWork) GetBookingRepository(ctx context.Context) persistence.BookingRepository {
	return repository.NewBookingRepository(u.getDbFromContext(ctx), u.logger)
}

// GetDepositRepository returns a deposit repository in the current transaction
func (u *UnitOfWork) GetDepositRepository(ctx context.Context) persistence.DepositRepository {
	return repository.NewDepositRepository(u.getDbFromContext(ctx), u.logger)
}

// GetInstallmentRepository returns an installment repository in the current transaction
func (u *UnitOfWork) GetInstallmentRepository(ctx context.Context) persistence.InstallmentRepository {
	return repository.NewInstallmentRepository(u.getDbFromContext(ctx), u.logger)
}

// GetSequenceRepository returns a sequence repository in the current transaction
func (u *UnitOfWork) GetSequenceRepository(ctx context.Context) persistence.SequenceRepository {
	return repository.NewSequenceRepository(u.getDbFromContext(ctx), u.timeProvider, u.logger)
}

// GetProcessingLogRepository returns a processing log repository in the current transaction
func (u *UnitOfWork) GetProcessingLogRepository(ctx context.Context) persistence.ProcessingLogRepository {
	return repository.NewProcessingLogRepository(u.getDbFromContext(ctx), u.logger)
}

// GetSettingRepository returns a setting repository in the current transaction
func (u *UnitOfWork) GetSettingRepository(ctx context.Context) persistence.SettingRepository {
	return repository.NewSettingRepository(u.getDbFromContext(ctx), u.timeProvider, u.logger)
}

// getDbFromContext retrieves the database instance from context
func (u *UnitOfWork) getDbFromContext(ctx context.Context) *gorm.DB {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	if ok && tx != nil {
		return tx.WithContext(ctx)
	}
	return u.db.WithContext(ctx)
}

var _ persistence.UnitOfWork = (*UnitOfWork)(nil)
