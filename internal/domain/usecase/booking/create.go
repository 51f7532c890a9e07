package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/txrunner"
)

// CreateInput is an agent's booking request
type CreateInput struct {
	UnitID       string
	AgentID      string
	PaymentProof string
	Note         string
}

// Create places a booking on the unit.
//
// Unit availability and existing claims are re-read inside one serializable transaction; the
// whole creation is retried when the store reports a serialization conflict. Upgrading the
// caller's reservation completes it and marks the rest of the queue MISSED.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Booking, error) {
	if strings.TrimSpace(in.UnitID) == "" {
		return nil, errs.NewValidationError("unitId", "is required")
	}
	if strings.TrimSpace(in.AgentID) == "" {
		return nil, errs.NewValidationError("agentId", "is required")
	}

	var created *entity.Booking
	err := s.runner.Run(ctx, "booking.create", txrunner.CreationPolicy(), func(ctx context.Context) error {
		created = nil
		uow := s.runner.UnitOfWork()

		unit, err := uow.GetUnitRepository(ctx).GetForUpdate(ctx, in.UnitID)
		if err != nil {
			return err
		}
		project, err := uow.GetProjectRepository(ctx).GetByID(ctx, unit.ProjectID)
		if err != nil {
			return err
		}

		own, err := s.reservations.UpgradableReservation(ctx, unit.ID, in.AgentID)
		if err != nil {
			return claimConflict(unit.ID, err)
		}
		if !project.AcceptsSales(own != nil) {
			return fmt.Errorf("%w: bookings need an open project or an own reservation, project %s is %s",
				errs.ErrProjectPhase, project.ID, project.Phase)
		}
		if err := unit.CheckClaimable(own != nil); err != nil {
			return errs.NewClaimConflictError(unit.ID, "booking", err)
		}

		if err := s.checkNoOpenClaim(ctx, unit.ID, in.AgentID); err != nil {
			return claimConflict(unit.ID, err)
		}

		amount, err := s.settings.BookingAmountRule(ctx).AmountFor(unit.Price)
		if err != nil {
			return err
		}

		code, err := s.codes.Next(ctx, entity.FamilyBooking)
		if err != nil {
			return err
		}

		now := s.timeProvider.Now()
		expiresAt := now.Add(s.settings.BookingDuration(ctx).Std())
		b := entity.NewBooking(code, unit.ID, project.ID, in.AgentID, amount, in.PaymentProof, in.Note, expiresAt, s.timeProvider)
		if own != nil {
			b.ReservationID = &own.ID
		}

		if err := uow.GetBookingRepository(ctx).Create(ctx, b); err != nil {
			if errors.Is(err, errs.ErrDuplicateKey) {
				return fmt.Errorf("%w: booking insert raced: %s", errs.ErrConcurrentUpdate, err.Error())
			}
			return err
		}

		if unit.Status != entity.UnitReservedBooking {
			if err := uow.GetUnitRepository(ctx).UpdateStatus(ctx, unit.ID, entity.UnitReservedBooking, now); err != nil {
				return err
			}
		}

		if own != nil {
			if err := s.reservations.CompleteForUpgrade(ctx, own); err != nil {
				return err
			}
		}

		s.effects.Notify(ctx, b.AgentID, entity.NotifyBookingCreated, payload(b))
		s.effects.Audit(ctx, b.AgentID, entity.ActionCreate, entity.EntityBooking, b.ID, nil, snapshot(b))
		created = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Booking created", map[string]any{
		"bookingId": created.ID,
		"code":      created.Code,
		"unitId":    created.UnitID,
		"agentId":   created.AgentID,
		"status":    string(created.Status),
	})
	return created, nil
}

// checkNoOpenClaim rejects a unit that already carries a non-terminal booking or deposit
func (s *Service) checkNoOpenClaim(ctx context.Context, unitID, agentID string) error {
	uow := s.runner.UnitOfWork()

	booking, err := uow.GetBookingRepository(ctx).FindOpenByUnit(ctx, unitID)
	if err != nil {
		return err
	}
	if booking != nil {
		return ownershipConflict(booking.AgentID, agentID)
	}

	deposit, err := uow.GetDepositRepository(ctx).FindOpenByUnit(ctx, unitID)
	if err != nil {
		return err
	}
	if deposit != nil {
		return ownershipConflict(deposit.AgentID, agentID)
	}
	return nil
}

func ownershipConflict(ownerID, agentID string) error {
	if ownerID == agentID {
		return errs.ErrDuplicateClaim
	}
	return errs.ErrUnitAlreadyClaimed
}

func claimConflict(unitID string, err error) error {
	if errs.IsConflictError(err) {
		return errs.NewClaimConflictError(unitID, "booking", err)
	}
	return err
}
