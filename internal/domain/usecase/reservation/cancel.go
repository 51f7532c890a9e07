package reservation

import (
	"context"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/txrunner"
)

// Cancel cancels a reservation on behalf of its owner or an administrator.
// Cancelling the reservation that holds the turn hands it to the next in queue.
func (s *Service) Cancel(ctx context.Context, reservationID string, actor entity.Actor, reason string) (*entity.Reservation, error) {
	var cancelled *entity.Reservation

	err := s.runner.Run(ctx, "reservation.cancel", txrunner.DefaultPolicy(), func(ctx context.Context) error {
		cancelled = nil
		repo := s.runner.UnitOfWork().GetReservationRepository(ctx)

		r, err := repo.GetByID(ctx, reservationID)
		if err != nil {
			return err
		}
		if !actor.CanManage(r.AgentID) {
			return errs.ErrForbidden
		}

		before := snapshot(r)
		heldTurn := r.Status == entity.ReservationYourTurn
		if err := r.Cancel(actor.ID, reason, s.timeProvider.Now()); err != nil {
			return err
		}
		if err := repo.Update(ctx, r); err != nil {
			return err
		}

		if heldTurn {
			if _, err := s.MoveToNextInQueue(ctx, r.UnitID); err != nil {
				return err
			}
		}

		s.effects.Resync(ctx, r.UnitID)
		s.effects.Notify(ctx, r.AgentID, entity.NotifyReservationCancelled, payload(r))
		s.effects.Audit(ctx, actor.ID, entity.ActionCancel, entity.EntityReservation, r.ID, before, snapshot(r))
		cancelled = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Reservation cancelled", map[string]any{
		"reservationId": cancelled.ID,
		"unitId":        cancelled.UnitID,
		"cancelledBy":   actor.ID,
	})
	return cancelled, nil
}
