package reservation

import (
	"context"
	"time"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/txrunner"
)

// ExpireReservations moves reservations past reservedUntil to EXPIRED.
// An expired YOUR_TURN reservation hands the turn to the next in queue.
func (s *Service) ExpireReservations(ctx context.Context) (usecase.SweepResult, error) {
	now := s.timeProvider.Now()
	candidates, err := s.runner.UnitOfWork().GetReservationRepository(ctx).ListPastExpiry(ctx, now, sweepLimit)
	if err != nil {
		return usecase.SweepResult{}, err
	}

	result := s.sweep(ctx, "reservation.expire", candidates, func(ctx context.Context, r *entity.Reservation) (bool, error) {
		if !r.IsPastExpiry(now) {
			return false, nil
		}
		if r.Status == entity.ReservationActive {
			project, err := s.runner.UnitOfWork().GetProjectRepository(ctx).GetByID(ctx, r.ProjectID)
			if err != nil {
				return false, err
			}
			if project.Phase == entity.ProjectOpen {
				return false, nil
			}
		}
		return true, s.close(ctx, r, entity.ReservationExpired, entity.NotifyReservationExpired, entity.ActionExpire, now)
	})

	s.logger.Info("Reservation expiry sweep finished", map[string]any{
		"candidates": len(candidates),
		"processed":  result.Processed,
		"failed":     result.Failed,
	})
	return result, nil
}

// ProcessMissedTurns moves YOUR_TURN reservations past their deposit deadline to MISSED and
// hands the turn to the next in queue, so one unresponsive agent cannot starve the queue.
func (s *Service) ProcessMissedTurns(ctx context.Context) (usecase.SweepResult, error) {
	now := s.timeProvider.Now()
	candidates, err := s.runner.UnitOfWork().GetReservationRepository(ctx).ListPastDepositDeadline(ctx, now, sweepLimit)
	if err != nil {
		return usecase.SweepResult{}, err
	}

	result := s.sweep(ctx, "reservation.missed_turn", candidates, func(ctx context.Context, r *entity.Reservation) (bool, error) {
		if !r.IsPastDepositDeadline(now) {
			return false, nil
		}
		return true, s.close(ctx, r, entity.ReservationMissed, entity.NotifyReservationMissed, entity.ActionMiss, now)
	})

	s.logger.Info("Missed turn sweep finished", map[string]any{
		"candidates": len(candidates),
		"processed":  result.Processed,
		"failed":     result.Failed,
	})
	return result, nil
}

// sweep handles each candidate in its own transaction after re-reading it
func (s *Service) sweep(
	ctx context.Context,
	operation string,
	candidates []*entity.Reservation,
	apply func(ctx context.Context, r *entity.Reservation) (bool, error),
) usecase.SweepResult {
	result := usecase.SweepResult{}
	for _, candidate := range candidates {
		if ctx.Err() != nil {
			break
		}

		var applied bool
		err := s.runner.Run(ctx, operation, txrunner.SweepPolicy(), func(ctx context.Context) error {
			r, err := s.runner.UnitOfWork().GetReservationRepository(ctx).GetByID(ctx, candidate.ID)
			if err != nil {
				return err
			}
			applied, err = apply(ctx, r)
			return err
		})
		if err != nil {
			result.Failed++
			s.logger.Warn("Failed to process reservation", map[string]any{
				"operation":     operation,
				"reservationId": candidate.ID,
				"error":         err.Error(),
			})
			continue
		}
		if applied {
			result.Processed++
		}
	}
	return result
}

// close moves a queued reservation to a closing status and advances the queue when it held the turn
func (s *Service) close(
	ctx context.Context,
	r *entity.Reservation,
	status entity.ReservationStatus,
	kind entity.NotificationType,
	action string,
	now time.Time,
) error {
	before := snapshot(r)
	heldTurn := r.Status == entity.ReservationYourTurn
	if err := r.TransitionTo(status, now); err != nil {
		return err
	}
	if err := s.runner.UnitOfWork().GetReservationRepository(ctx).Update(ctx, r); err != nil {
		return err
	}

	if heldTurn {
		if _, err := s.MoveToNextInQueue(ctx, r.UnitID); err != nil {
			return err
		}
	}

	s.effects.Resync(ctx, r.UnitID)
	s.effects.Notify(ctx, r.AgentID, kind, payload(r))
	s.effects.Audit(ctx, entity.SystemActor().ID, action, entity.EntityReservation, r.ID, before, snapshot(r))
	return nil
}
