package booking

import (
	"context"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/port/usecase"
)

// ExpireBookings moves PENDING_PAYMENT and PENDING_APPROVAL bookings past expiresAt to EXPIRED.
// It runs on demand; each booking is re-read and expired in its own transaction.
func (s *Service) ExpireBookings(ctx context.Context) (usecase.SweepResult, error) {
	now := s.timeProvider.Now()
	candidates, err := s.runner.UnitOfWork().GetBookingRepository(ctx).ListPastExpiry(ctx, now, sweepLimit)
	if err != nil {
		return usecase.SweepResult{}, err
	}

	result := usecase.SweepResult{}
	for _, candidate := range candidates {
		if ctx.Err() != nil {
			break
		}

		expired := false
		_, err := s.transition(ctx, "booking.expire", candidate.ID, func(ctx context.Context, b *entity.Booking) error {
			expired = false
			if !b.IsPastExpiry(now) {
				return nil
			}
			before := snapshot(b)
			if err := b.TransitionTo(entity.BookingExpired, now); err != nil {
				return err
			}
			expired = true

			s.effects.Notify(ctx, b.AgentID, entity.NotifyBookingExpired, payload(b))
			s.effects.Audit(ctx, entity.SystemActor().ID, entity.ActionExpire, entity.EntityBooking, b.ID, before, snapshot(b))
			return nil
		})
		if err != nil {
			result.Failed++
			s.logger.Warn("Failed to expire booking", map[string]any{
				"bookingId": candidate.ID,
				"error":     err.Error(),
			})
			continue
		}
		if expired {
			result.Processed++
		}
	}

	s.logger.Info("Booking expiry sweep finished", map[string]any{
		"candidates": len(candidates),
		"processed":  result.Processed,
		"failed":     result.Failed,
	})
	return result, nil
}
