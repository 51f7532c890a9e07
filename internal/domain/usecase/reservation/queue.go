package reservation

import (
	"context"
	"fmt"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/txrunner"
)

// Reasons reported when a queue advance promotes nobody
const (
	ReasonUnitUnavailable = "unit is no longer available"
	ReasonProjectNotOpen  = "project is not open for sale"
	ReasonTurnHeld        = "another reservation already holds the turn"
	ReasonQueueEmpty      = "no active reservation in queue"
)

// MoveToNextInQueue promotes the ACTIVE reservation with the lowest (priority, createdAt) to
// YOUR_TURN and stamps its deposit deadline. Sold or deposited units, closed projects, a turn
// already granted and an empty queue are silent no-ops reported through AdvanceResult.Reason.
// Called with a transactional ctx it runs inside that transaction.
func (s *Service) MoveToNextInQueue(ctx context.Context, unitID string) (usecase.AdvanceResult, error) {
	var result usecase.AdvanceResult

	err := s.runner.Run(ctx, "reservation.advance", txrunner.DefaultPolicy(), func(ctx context.Context) error {
		result = usecase.AdvanceResult{}
		uow := s.runner.UnitOfWork()

		unit, err := uow.GetUnitRepository(ctx).GetForUpdate(ctx, unitID)
		if err != nil {
			return err
		}
		if unit.Status != entity.UnitAvailable && unit.Status != entity.UnitReservedBooking {
			result.Reason = ReasonUnitUnavailable
			return nil
		}

		project, err := uow.GetProjectRepository(ctx).GetByID(ctx, unit.ProjectID)
		if err != nil {
			return err
		}
		if project.Phase != entity.ProjectOpen {
			result.Reason = ReasonProjectNotOpen
			return nil
		}

		repo := uow.GetReservationRepository(ctx)
		turns, err := repo.CountByUnit(ctx, unitID, []entity.ReservationStatus{entity.ReservationYourTurn})
		if err != nil {
			return err
		}
		if turns > 0 {
			result.Reason = ReasonTurnHeld
			return nil
		}

		next, err := repo.NextActive(ctx, unitID)
		if err != nil {
			return err
		}
		if next == nil || next.Status != entity.ReservationActive {
			result.Reason = ReasonQueueEmpty
			return nil
		}

		now := s.timeProvider.Now()
		deadline := now.Add(s.settings.YourTurnDeadline(ctx).Std())
		before := snapshot(next)
		if err := next.PromoteToYourTurn(deadline, now); err != nil {
			return err
		}
		if err := repo.Update(ctx, next); err != nil {
			return err
		}

		s.effects.Resync(ctx, unitID)
		s.effects.Notify(ctx, next.AgentID, entity.NotifyReservationYourTurn, payload(next))
		s.effects.Audit(ctx, entity.SystemActor().ID, entity.ActionPromote, entity.EntityReservation, next.ID, before, snapshot(next))

		result = usecase.AdvanceResult{Advanced: true, Reservation: next}
		return nil
	})
	if err != nil {
		return usecase.AdvanceResult{}, err
	}

	if result.Advanced {
		s.logger.Info("Reservation promoted to your turn", map[string]any{
			"reservationId":   result.Reservation.ID,
			"unitId":          unitID,
			"agentId":         result.Reservation.AgentID,
			"depositDeadline": result.Reservation.DepositDeadline,
		})
	} else {
		s.logger.Debug("Queue not advanced", map[string]any{
			"unitId": unitID,
			"reason": result.Reason,
		})
	}
	return result, nil
}

// UpgradableReservation returns the agent's queued reservation on the unit, or nil.
// Upgrading an ACTIVE reservation is refused while another agent holds YOUR_TURN.
func (s *Service) UpgradableReservation(ctx context.Context, unitID, agentID string) (*entity.Reservation, error) {
	repo := s.runner.UnitOfWork().GetReservationRepository(ctx)

	own, err := repo.FindQueuedByUnitAndAgent(ctx, unitID, agentID)
	if err != nil || own == nil {
		return nil, err
	}
	if own.Status == entity.ReservationYourTurn {
		return own, nil
	}

	turns, err := repo.CountByUnit(ctx, unitID, []entity.ReservationStatus{entity.ReservationYourTurn})
	if err != nil {
		return nil, err
	}
	if turns > 0 {
		return nil, errs.ErrUnitAlreadyClaimed
	}
	return own, nil
}

// CompleteForUpgrade marks the reservation COMPLETED and every other queued reservation on the
// unit MISSED. It must run inside the transaction that creates the booking or deposit.
func (s *Service) CompleteForUpgrade(ctx context.Context, r *entity.Reservation) error {
	uow := s.runner.UnitOfWork()
	if !uow.InTransaction(ctx) {
		return fmt.Errorf("%w: reservation upgrade requires a transaction", errs.ErrInternalServer)
	}

	repo := uow.GetReservationRepository(ctx)
	now := s.timeProvider.Now()

	before := snapshot(r)
	if err := r.TransitionTo(entity.ReservationCompleted, now); err != nil {
		return err
	}
	if err := repo.Update(ctx, r); err != nil {
		return err
	}
	s.effects.Audit(ctx, r.AgentID, entity.ActionComplete, entity.EntityReservation, r.ID, before, snapshot(r))

	queued, err := repo.ListQueuedByUnit(ctx, r.UnitID)
	if err != nil {
		return err
	}
	for _, sibling := range queued {
		if sibling.ID == r.ID {
			continue
		}
		previous := snapshot(sibling)
		if !sibling.Supersede(now) {
			continue
		}
		if err := repo.Update(ctx, sibling); err != nil {
			return err
		}
		s.effects.Notify(ctx, sibling.AgentID, entity.NotifyReservationMissed, payload(sibling))
		s.effects.Audit(ctx, entity.SystemActor().ID, entity.ActionMiss, entity.EntityReservation, sibling.ID, previous, snapshot(sibling))
	}
	return nil
}
