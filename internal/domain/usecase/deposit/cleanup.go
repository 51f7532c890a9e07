package deposit

import (
	"context"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/txrunner"
)

// CleanupResult reports what a unit cleanup cancelled
type CleanupResult struct {
	UnitID            string            `json:"unitId"`
	CancelledDeposits int               `json:"cancelledDeposits"`
	CancelledBookings int               `json:"cancelledBookings"`
	Status            entity.UnitStatus `json:"status"`
}

// Cleanup cancels every open deposit and booking on a unit and frees a DEPOSITED unit.
// Automated processes never leave DEPOSITED, so stale claims are removed here by an administrator.
// Sold units are rejected.
func (s *Service) Cleanup(ctx context.Context, unitID string, admin entity.Actor, reason string) (CleanupResult, error) {
	if err := requireAdmin(admin); err != nil {
		return CleanupResult{}, err
	}

	var result CleanupResult
	err := s.runner.Run(ctx, "deposit.cleanup", txrunner.DefaultPolicy(), func(ctx context.Context) error {
		result = CleanupResult{UnitID: unitID}
		uow := s.runner.UnitOfWork()
		now := s.timeProvider.Now()

		unit, err := uow.GetUnitRepository(ctx).GetForUpdate(ctx, unitID)
		if err != nil {
			return err
		}
		if unit.Status == entity.UnitSold {
			return errs.NewClaimConflictError(unit.ID, "cleanup", errs.ErrUnitSold)
		}
		result.Status = unit.Status

		deposits, err := uow.GetDepositRepository(ctx).ListOpenByUnit(ctx, unitID)
		if err != nil {
			return err
		}
		for _, d := range deposits {
			before := snapshot(d)
			if err := d.Cancel(admin.ID, reason, now); err != nil {
				return err
			}
			if err := uow.GetDepositRepository(ctx).Update(ctx, d); err != nil {
				return err
			}
			if err := s.cancelSchedule(ctx, d.ID); err != nil {
				return err
			}
			s.effects.Notify(ctx, d.AgentID, entity.NotifyDepositCancelled, payload(d))
			s.effects.Audit(ctx, admin.ID, entity.ActionCancel, entity.EntityDeposit, d.ID, before, snapshot(d))
			result.CancelledDeposits++
		}

		refunds := s.settings.RefundPolicy(ctx)
		bookings, err := uow.GetBookingRepository(ctx).ListOpenByUnit(ctx, unitID)
		if err != nil {
			return err
		}
		for _, b := range bookings {
			refund := refunds.RefundFor(b)
			before := map[string]any{"status": string(b.Status)}
			if err := b.TransitionTo(entity.BookingCancelled, now); err != nil {
				return err
			}
			b.RefundAmount = &refund
			b.CancelledBy = admin.ID
			b.CancelReason = reason
			if err := uow.GetBookingRepository(ctx).Update(ctx, b); err != nil {
				return err
			}
			s.effects.Notify(ctx, b.AgentID, entity.NotifyBookingCancelled, map[string]any{
				"bookingId":    b.ID,
				"code":         b.Code,
				"unitId":       b.UnitID,
				"refundAmount": entity.FormatAmount(refund),
			})
			s.effects.Audit(ctx, admin.ID, entity.ActionCancel, entity.EntityBooking, b.ID, before,
				map[string]any{"status": string(b.Status)})
			result.CancelledBookings++
		}

		if unit.Status == entity.UnitDeposited {
			if err := uow.GetUnitRepository(ctx).UpdateStatus(ctx, unitID, entity.UnitAvailable, now); err != nil {
				return err
			}
			result.Status = entity.UnitAvailable
		}

		s.effects.Resync(ctx, unitID)
		s.effects.Audit(ctx, admin.ID, entity.ActionCleanup, entity.EntityUnit, unitID,
			map[string]any{"status": string(unit.Status)}, map[string]any{"status": string(result.Status), "reason": reason})
		return nil
	})
	if err != nil {
		return CleanupResult{}, err
	}

	s.logger.Info("Unit cleaned up", map[string]any{
		"unitId":            unitID,
		"cancelledDeposits": result.CancelledDeposits,
		"cancelledBookings": result.CancelledBookings,
		"cleanedBy":         admin.ID,
	})
	return result, nil
}
