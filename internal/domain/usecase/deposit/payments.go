package deposit

import (
	"context"
	"fmt"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/txrunner"
)

// MarkInstallmentPaid records the payment of a schedule row. Paying the last open row completes
// the sale; paying the last overdue row returns an OVERDUE deposit to CONFIRMED.
func (s *Service) MarkInstallmentPaid(ctx context.Context, installmentID string, actor entity.Actor) (*entity.Installment, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var paid *entity.Installment
	err := s.runner.Run(ctx, "deposit.installment_paid", txrunner.DefaultPolicy(), func(ctx context.Context) error {
		paid = nil
		uow := s.runner.UnitOfWork()
		instRepo := uow.GetInstallmentRepository(ctx)

		inst, err := instRepo.GetByID(ctx, installmentID)
		if err != nil {
			return err
		}
		d, err := uow.GetDepositRepository(ctx).GetByID(ctx, inst.DepositID)
		if err != nil {
			return err
		}
		if d.Status != entity.DepositConfirmed && d.Status != entity.DepositOverdue {
			return fmt.Errorf("%w: deposit %s is %s", errs.ErrInvalidTransition, d.Code, d.Status)
		}

		now := s.timeProvider.Now()
		before := map[string]any{"status": string(inst.Status)}
		if err := inst.MarkPaid(now); err != nil {
			return err
		}
		if err := instRepo.Update(ctx, inst); err != nil {
			return err
		}
		s.effects.Audit(ctx, actor.ID, entity.ActionPay, entity.EntityInstallment, inst.ID, before,
			map[string]any{"status": string(inst.Status)})

		schedule, err := instRepo.ListByDeposit(ctx, d.ID)
		if err != nil {
			return err
		}

		switch {
		case entity.AllPaid(schedule):
			if err := s.completeSale(ctx, d, actor); err != nil {
				return err
			}
		case d.Status == entity.DepositOverdue && !entity.HasOverdue(schedule):
			if err := d.TransitionTo(entity.DepositConfirmed, now); err != nil {
				return err
			}
			if err := uow.GetDepositRepository(ctx).Update(ctx, d); err != nil {
				return err
			}
		}

		paid = inst
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Installment paid", map[string]any{
		"installmentId": paid.ID,
		"depositId":     paid.DepositID,
		"sequence":      paid.Sequence,
	})
	return paid, nil
}

// CompleteSale closes a deposit once the sale is fully paid: the unit becomes SOLD, the
// deposit COMPLETED and the commission is requested after commit. Rows still open are
// marked paid, as full payment is reported by the payment side.
func (s *Service) CompleteSale(ctx context.Context, depositID string, actor entity.Actor) (*entity.Deposit, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var completed *entity.Deposit
	err := s.runner.Run(ctx, "deposit.complete", txrunner.DefaultPolicy(), func(ctx context.Context) error {
		completed = nil
		uow := s.runner.UnitOfWork()

		d, err := uow.GetDepositRepository(ctx).GetByID(ctx, depositID)
		if err != nil {
			return err
		}

		instRepo := uow.GetInstallmentRepository(ctx)
		schedule, err := instRepo.ListByDeposit(ctx, d.ID)
		if err != nil {
			return err
		}
		now := s.timeProvider.Now()
		for i := range schedule {
			if !schedule[i].IsUnpaid() {
				continue
			}
			if err := schedule[i].MarkPaid(now); err != nil {
				return err
			}
			if err := instRepo.Update(ctx, &schedule[i]); err != nil {
				return err
			}
		}

		if err := s.completeSale(ctx, d, actor); err != nil {
			return err
		}
		completed = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

func (s *Service) completeSale(ctx context.Context, d *entity.Deposit, actor entity.Actor) error {
	uow := s.runner.UnitOfWork()
	now := s.timeProvider.Now()

	before := snapshot(d)
	if err := d.Complete(now); err != nil {
		return err
	}
	if err := uow.GetDepositRepository(ctx).Update(ctx, d); err != nil {
		return err
	}
	if err := uow.GetUnitRepository(ctx).UpdateStatus(ctx, d.UnitID, entity.UnitSold, now); err != nil {
		return err
	}

	depositID := d.ID
	s.effects.After(ctx, "commission.create", map[string]any{"depositId": depositID}, func(ctx context.Context) error {
		return s.commission.CreateForDeposit(ctx, depositID)
	})
	s.effects.Notify(ctx, d.AgentID, entity.NotifyDepositCompleted, payload(d))
	s.effects.Audit(ctx, actor.ID, entity.ActionComplete, entity.EntityDeposit, d.ID, before, snapshot(d))

	s.logger.Info("Sale completed", map[string]any{
		"depositId": d.ID,
		"unitId":    d.UnitID,
	})
	return nil
}

// ProcessOverduePayments marks PENDING schedule rows past their due date OVERDUE and moves a
// CONFIRMED parent deposit to OVERDUE.
func (s *Service) ProcessOverduePayments(ctx context.Context) (usecase.SweepResult, error) {
	now := s.timeProvider.Now()
	candidates, err := s.runner.UnitOfWork().GetInstallmentRepository(ctx).ListPastDue(ctx, now, sweepLimit)
	if err != nil {
		return usecase.SweepResult{}, err
	}

	result := usecase.SweepResult{}
	for _, candidate := range candidates {
		if ctx.Err() != nil {
			break
		}

		marked := false
		err := s.runner.Run(ctx, "deposit.overdue", txrunner.SweepPolicy(), func(ctx context.Context) error {
			marked = false
			uow := s.runner.UnitOfWork()
			instRepo := uow.GetInstallmentRepository(ctx)

			inst, err := instRepo.GetByID(ctx, candidate.ID)
			if err != nil {
				return err
			}
			if !inst.MarkOverdue(now) {
				return nil
			}
			if err := instRepo.Update(ctx, inst); err != nil {
				return err
			}

			d, err := uow.GetDepositRepository(ctx).GetByID(ctx, inst.DepositID)
			if err != nil {
				return err
			}
			if d.Status == entity.DepositConfirmed {
				before := snapshot(d)
				if err := d.TransitionTo(entity.DepositOverdue, now); err != nil {
					return err
				}
				if err := uow.GetDepositRepository(ctx).Update(ctx, d); err != nil {
					return err
				}
				s.effects.Audit(ctx, entity.SystemActor().ID, entity.ActionExpire, entity.EntityDeposit, d.ID, before, snapshot(d))
			}

			s.effects.Resync(ctx, d.UnitID)
			s.effects.Notify(ctx, d.AgentID, entity.NotifyPaymentOverdue, map[string]any{
				"depositId":     d.ID,
				"installmentId": inst.ID,
				"name":          inst.Name,
				"amount":        entity.FormatAmount(inst.Amount),
				"dueDate":       inst.DueDate,
			})
			marked = true
			return nil
		})
		if err != nil {
			result.Failed++
			s.logger.Warn("Failed to mark installment overdue", map[string]any{
				"installmentId": candidate.ID,
				"error":         err.Error(),
			})
			continue
		}
		if marked {
			result.Processed++
		}
	}

	s.logger.Info("Overdue payment sweep finished", map[string]any{
		"candidates": len(candidates),
		"processed":  result.Processed,
		"failed":     result.Failed,
	})
	return result, nil
}
