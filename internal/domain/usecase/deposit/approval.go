package deposit

import (
	"context"
	"fmt"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/txrunner"
)

// Approve confirms a deposit, marks its unit DEPOSITED and creates the payment schedule in the
// same transaction.
func (s *Service) Approve(ctx context.Context, depositID string, admin entity.Actor) (*entity.Deposit, []entity.Installment, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, nil, err
	}

	var approved *entity.Deposit
	var schedule []entity.Installment

	err := s.runner.Run(ctx, "deposit.approve", txrunner.DefaultPolicy(), func(ctx context.Context) error {
		approved, schedule = nil, nil
		uow := s.runner.UnitOfWork()

		d, err := uow.GetDepositRepository(ctx).GetByID(ctx, depositID)
		if err != nil {
			return err
		}
		unit, err := uow.GetUnitRepository(ctx).GetForUpdate(ctx, d.UnitID)
		if err != nil {
			return err
		}
		if unit.Status == entity.UnitSold {
			return errs.NewClaimConflictError(unit.ID, "deposit approval", errs.ErrUnitSold)
		}

		now := s.timeProvider.Now()
		before := snapshot(d)
		if err := d.Approve(admin.ID, now); err != nil {
			return err
		}

		price := entity.EffectivePrice(unit.Price, d.FinalPrice)
		rows, err := entity.BuildPaymentSchedule(d, price, s.settings.PaymentScheduleTemplate(ctx), now)
		if err != nil {
			return err
		}

		if err := uow.GetDepositRepository(ctx).Update(ctx, d); err != nil {
			return err
		}
		if err := uow.GetInstallmentRepository(ctx).CreateBatch(ctx, rows); err != nil {
			return err
		}
		if err := uow.GetUnitRepository(ctx).UpdateStatus(ctx, unit.ID, entity.UnitDeposited, now); err != nil {
			return err
		}

		s.effects.Notify(ctx, d.AgentID, entity.NotifyDepositApproved, payload(d))
		s.effects.Audit(ctx, admin.ID, entity.ActionApprove, entity.EntityDeposit, d.ID, before, snapshot(d))
		approved, schedule = d, rows
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("Deposit approved", map[string]any{
		"depositId":    approved.ID,
		"unitId":       approved.UnitID,
		"approvedBy":   admin.ID,
		"installments": len(schedule),
	})
	return approved, schedule, nil
}

// Reject turns down a deposit awaiting approval
func (s *Service) Reject(ctx context.Context, depositID string, admin entity.Actor, reason string) (*entity.Deposit, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}

	var rejected *entity.Deposit
	err := s.runner.Run(ctx, "deposit.reject", txrunner.DefaultPolicy(), func(ctx context.Context) error {
		rejected = nil
		repo := s.runner.UnitOfWork().GetDepositRepository(ctx)

		d, err := repo.GetByID(ctx, depositID)
		if err != nil {
			return err
		}
		if d.Status != entity.DepositPendingApproval {
			return fmt.Errorf("%w: only deposits awaiting approval can be rejected, deposit %s is %s",
				errs.ErrInvalidTransition, d.Code, d.Status)
		}

		before := snapshot(d)
		if err := d.Cancel(admin.ID, reason, s.timeProvider.Now()); err != nil {
			return err
		}
		if err := repo.Update(ctx, d); err != nil {
			return err
		}

		s.effects.Resync(ctx, d.UnitID)
		s.effects.Notify(ctx, d.AgentID, entity.NotifyDepositRejected, payload(d))
		s.effects.Audit(ctx, admin.ID, entity.ActionReject, entity.EntityDeposit, d.ID, before, snapshot(d))
		rejected = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Deposit rejected", map[string]any{
		"depositId":  rejected.ID,
		"unitId":     rejected.UnitID,
		"rejectedBy": admin.ID,
	})
	return rejected, nil
}

// Cancel cancels a deposit. Owners may only cancel while it awaits approval; administrators
// may cancel any open deposit, which voids the unpaid schedule and releases a DEPOSITED unit.
func (s *Service) Cancel(ctx context.Context, depositID string, actor entity.Actor, reason string) (*entity.Deposit, error) {
	var cancelled *entity.Deposit

	err := s.runner.Run(ctx, "deposit.cancel", txrunner.DefaultPolicy(), func(ctx context.Context) error {
		cancelled = nil
		uow := s.runner.UnitOfWork()

		d, err := uow.GetDepositRepository(ctx).GetByID(ctx, depositID)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() && (actor.ID != d.AgentID || d.Status != entity.DepositPendingApproval) {
			return errs.ErrForbidden
		}

		now := s.timeProvider.Now()
		before := snapshot(d)
		wasApproved := d.Status == entity.DepositConfirmed || d.Status == entity.DepositOverdue
		if err := d.Cancel(actor.ID, reason, now); err != nil {
			return err
		}
		if err := uow.GetDepositRepository(ctx).Update(ctx, d); err != nil {
			return err
		}

		if wasApproved {
			if err := s.cancelSchedule(ctx, d.ID); err != nil {
				return err
			}
			if err := s.releaseDepositedUnit(ctx, d.UnitID); err != nil {
				return err
			}
		}

		s.effects.Resync(ctx, d.UnitID)
		s.effects.Notify(ctx, d.AgentID, entity.NotifyDepositCancelled, payload(d))
		s.effects.Audit(ctx, actor.ID, entity.ActionCancel, entity.EntityDeposit, d.ID, before, snapshot(d))
		cancelled = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Deposit cancelled", map[string]any{
		"depositId":   cancelled.ID,
		"unitId":      cancelled.UnitID,
		"cancelledBy": actor.ID,
	})
	return cancelled, nil
}

// releaseDepositedUnit is the explicit path out of the sticky DEPOSITED status.
// The post-commit resync then re-derives RESERVED_BOOKING if other claims remain.
func (s *Service) releaseDepositedUnit(ctx context.Context, unitID string) error {
	repo := s.runner.UnitOfWork().GetUnitRepository(ctx)
	unit, err := repo.GetForUpdate(ctx, unitID)
	if err != nil {
		return err
	}
	if unit.Status != entity.UnitDeposited {
		return nil
	}
	return repo.UpdateStatus(ctx, unitID, entity.UnitAvailable, s.timeProvider.Now())
}
