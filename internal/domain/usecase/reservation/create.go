package reservation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/txrunner"
)

// CreateInput is an agent's request to join a unit's queue
type CreateInput struct {
	UnitID  string
	AgentID string
	Note    string
}

// Create queues the agent on the unit.
//
// The queue position is the number of ACTIVE and YOUR_TURN reservations plus one, counted and
// inserted in the same serializable transaction so two concurrent requests cannot share a rank.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Reservation, error) {
	if strings.TrimSpace(in.UnitID) == "" {
		return nil, errs.NewValidationError("unitId", "is required")
	}
	if strings.TrimSpace(in.AgentID) == "" {
		return nil, errs.NewValidationError("agentId", "is required")
	}

	var created *entity.Reservation
	err := s.runner.Run(ctx, "reservation.create", txrunner.CreationPolicy(), func(ctx context.Context) error {
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
		if !project.AcceptsReservations() {
			return fmt.Errorf("%w: reservations need an upcoming project, project %s is %s",
				errs.ErrProjectPhase, project.ID, project.Phase)
		}

		if err := s.checkQueueable(ctx, unit); err != nil {
			if errs.IsConflictError(err) {
				return errs.NewClaimConflictError(unit.ID, "reservation", err)
			}
			return err
		}

		repo := uow.GetReservationRepository(ctx)
		existing, err := repo.FindQueuedByUnitAndAgent(ctx, unit.ID, in.AgentID)
		if err != nil {
			return err
		}
		if existing != nil {
			return errs.NewClaimConflictError(unit.ID, "reservation", errs.ErrDuplicateClaim)
		}

		queued, err := repo.CountByUnit(ctx, unit.ID, entity.QueuedReservationStatuses())
		if err != nil {
			return err
		}

		now := s.timeProvider.Now()
		until := entity.ReservationExpiry(now, project.OpenDate, s.settings.ReservationDuration(ctx).Std())
		if !until.After(now) {
			return fmt.Errorf("%w: the sale opening date of project %s has passed", errs.ErrProjectPhase, project.ID)
		}

		code, err := s.codes.Next(ctx, entity.FamilyReservation)
		if err != nil {
			return err
		}

		r := entity.NewReservation(code, unit.ID, project.ID, in.AgentID, in.Note, int(queued)+1, until, s.timeProvider)
		if err := repo.Create(ctx, r); err != nil {
			if errors.Is(err, errs.ErrDuplicateKey) {
				return fmt.Errorf("%w: reservation insert raced: %s", errs.ErrConcurrentUpdate, err.Error())
			}
			return err
		}

		if unit.Status == entity.UnitAvailable {
			if err := uow.GetUnitRepository(ctx).UpdateStatus(ctx, unit.ID, entity.UnitReservedBooking, now); err != nil {
				return err
			}
		}

		s.effects.Notify(ctx, r.AgentID, entity.NotifyReservationCreated, payload(r))
		s.effects.Audit(ctx, r.AgentID, entity.ActionCreate, entity.EntityReservation, r.ID, nil, snapshot(r))
		created = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Reservation created", map[string]any{
		"reservationId": created.ID,
		"code":          created.Code,
		"unitId":        created.UnitID,
		"agentId":       created.AgentID,
		"priority":      created.Priority,
	})
	return created, nil
}

// checkQueueable accepts AVAILABLE units and units held only by other reservations
func (s *Service) checkQueueable(ctx context.Context, unit *entity.Unit) error {
	switch unit.Status {
	case entity.UnitSold:
		return errs.ErrUnitSold
	case entity.UnitDeposited:
		return errs.ErrUnitDeposited
	case entity.UnitAvailable:
		return nil
	}

	uow := s.runner.UnitOfWork()
	bookings, err := uow.GetBookingRepository(ctx).CountByUnit(ctx, unit.ID, entity.OpenBookingStatuses())
	if err != nil {
		return err
	}
	deposits, err := uow.GetDepositRepository(ctx).CountByUnit(ctx, unit.ID, entity.OpenDepositStatuses())
	if err != nil {
		return err
	}
	if bookings > 0 || deposits > 0 {
		return errs.ErrUnitAlreadyClaimed
	}
	return nil
}
