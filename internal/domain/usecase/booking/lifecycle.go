package booking

import (
	"context"
	"strings"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
)

// SubmitPayment attaches payment proof to a PENDING_PAYMENT booking and sends it for approval
func (s *Service) SubmitPayment(ctx context.Context, bookingID string, actor entity.Actor, proof string) (*entity.Booking, error) {
	if strings.TrimSpace(proof) == "" {
		return nil, errs.NewValidationError("paymentProof", "is required")
	}

	return s.transition(ctx, "booking.submit_payment", bookingID, func(ctx context.Context, b *entity.Booking) error {
		if !actor.CanManage(b.AgentID) {
			return errs.ErrForbidden
		}
		before := snapshot(b)
		if err := b.TransitionTo(entity.BookingPendingApproval, s.timeProvider.Now()); err != nil {
			return err
		}
		b.PaymentProof = proof

		s.effects.Notify(ctx, b.AgentID, entity.NotifyBookingPaymentSent, payload(b))
		s.effects.Audit(ctx, actor.ID, entity.ActionPay, entity.EntityBooking, b.ID, before, snapshot(b))
		return nil
	})
}

// Approve confirms a booking awaiting approval
func (s *Service) Approve(ctx context.Context, bookingID string, admin entity.Actor) (*entity.Booking, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}

	return s.transition(ctx, "booking.approve", bookingID, func(ctx context.Context, b *entity.Booking) error {
		now := s.timeProvider.Now()
		before := snapshot(b)
		if err := b.TransitionTo(entity.BookingConfirmed, now); err != nil {
			return err
		}
		b.ApprovedBy = admin.ID
		b.ApprovedAt = &now

		s.effects.Notify(ctx, b.AgentID, entity.NotifyBookingApproved, payload(b))
		s.effects.Audit(ctx, admin.ID, entity.ActionApprove, entity.EntityBooking, b.ID, before, snapshot(b))
		return nil
	})
}

// Reject turns down a booking and refunds it in full
func (s *Service) Reject(ctx context.Context, bookingID string, admin entity.Actor, reason string) (*entity.Booking, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}

	return s.transition(ctx, "booking.reject", bookingID, func(ctx context.Context, b *entity.Booking) error {
		before := snapshot(b)
		if err := b.TransitionTo(entity.BookingCancelled, s.timeProvider.Now()); err != nil {
			return err
		}
		refund := b.Amount
		b.RefundAmount = &refund
		b.CancelledBy = admin.ID
		b.CancelReason = reason

		s.effects.Notify(ctx, b.AgentID, entity.NotifyBookingRejected, payload(b))
		s.effects.Audit(ctx, admin.ID, entity.ActionReject, entity.EntityBooking, b.ID, before, snapshot(b))
		return nil
	})
}

// Cancel cancels a booking on behalf of its owner or an administrator.
// The refund follows the configured policy, by default 50% of a CONFIRMED booking and 100% otherwise.
func (s *Service) Cancel(ctx context.Context, bookingID string, actor entity.Actor, reason string) (*entity.Booking, error) {
	return s.transition(ctx, "booking.cancel", bookingID, func(ctx context.Context, b *entity.Booking) error {
		if !actor.CanManage(b.AgentID) {
			return errs.ErrForbidden
		}
		before := snapshot(b)
		refund := s.settings.RefundPolicy(ctx).RefundFor(b)
		if err := b.TransitionTo(entity.BookingCancelled, s.timeProvider.Now()); err != nil {
			return err
		}
		b.RefundAmount = &refund
		b.CancelledBy = actor.ID
		b.CancelReason = reason

		s.effects.Notify(ctx, b.AgentID, entity.NotifyBookingCancelled, payload(b))
		s.effects.Audit(ctx, actor.ID, entity.ActionCancel, entity.EntityBooking, b.ID, before, snapshot(b))
		return nil
	})
}
