// Package booking implements the interim paid claim placed while a project is open for sale.
package booking

import (
	"context"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	coreport "github.com/amirhossein-jamali/unit-allocator/internal/domain/port/core"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/postcommit"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/settings"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/txrunner"
)

const sweepLimit = 500

// Service implements the booking lifecycle
type Service struct {
	runner       *txrunner.Runner
	codes        usecase.CodeGenerator
	reservations usecase.ReservationUpgrader
	settings     *settings.Provider
	effects      *postcommit.Effects
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewService creates a new booking service
func NewService(
	runner *txrunner.Runner,
	codes usecase.CodeGenerator,
	reservations usecase.ReservationUpgrader,
	settings *settings.Provider,
	effects *postcommit.Effects,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *Service {
	return &Service{
		runner:       runner,
		codes:        codes,
		reservations: reservations,
		settings:     settings,
		effects:      effects,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

func payload(b *entity.Booking) map[string]any {
	p := map[string]any{
		"bookingId": b.ID,
		"code":      b.Code,
		"unitId":    b.UnitID,
		"status":    string(b.Status),
		"amount":    entity.FormatAmount(b.Amount),
		"expiresAt": b.ExpiresAt,
	}
	if b.RefundAmount != nil {
		p["refundAmount"] = entity.FormatAmount(*b.RefundAmount)
	}
	return p
}

func snapshot(b *entity.Booking) map[string]any {
	return map[string]any{"status": string(b.Status)}
}

// Get returns a booking by ID
func (s *Service) Get(ctx context.Context, id string) (*entity.Booking, error) {
	return s.runner.UnitOfWork().GetBookingRepository(ctx).GetByID(ctx, id)
}

// transition loads a booking inside a transaction, lets change mutate it and persists it.
// A post-commit status resync is always scheduled.
func (s *Service) transition(
	ctx context.Context,
	operation, bookingID string,
	change func(ctx context.Context, b *entity.Booking) error,
) (*entity.Booking, error) {
	var updated *entity.Booking

	err := s.runner.Run(ctx, operation, txrunner.DefaultPolicy(), func(ctx context.Context) error {
		updated = nil
		repo := s.runner.UnitOfWork().GetBookingRepository(ctx)

		b, err := repo.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := change(ctx, b); err != nil {
			return err
		}
		if err := repo.Update(ctx, b); err != nil {
			return err
		}

		s.effects.Resync(ctx, b.UnitID)
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Booking updated", map[string]any{
		"operation": operation,
		"bookingId": updated.ID,
		"unitId":    updated.UnitID,
		"status":    string(updated.Status),
	})
	return updated, nil
}

func requireAdmin(actor entity.Actor) error {
	if !actor.IsAdmin() {
		return errs.ErrForbidden
	}
	return nil
}
