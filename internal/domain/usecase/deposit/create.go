package deposit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/txrunner"
	"github.com/shopspring/decimal"
)

// CreateInput is an agent's deposit request. Amounts are decimal strings.
type CreateInput struct {
	UnitID     string
	AgentID    string
	Amount     string
	FinalPrice string // optional negotiated price
	Note       string
}

// Create places a deposit on the unit.
//
// The amount must be positive, at most the effective price and at least
// ceil(price * deposit_min_percentage / 100). The caller's own CONFIRMED booking is upgraded and
// the caller's own reservation completed in the same transaction.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Deposit, error) {
	if strings.TrimSpace(in.UnitID) == "" {
		return nil, errs.NewValidationError("unitId", "is required")
	}
	if strings.TrimSpace(in.AgentID) == "" {
		return nil, errs.NewValidationError("agentId", "is required")
	}
	amount, err := entity.ParseAmount(in.Amount)
	if err != nil {
		return nil, err
	}
	var finalPrice *decimal.Decimal
	if strings.TrimSpace(in.FinalPrice) != "" {
		fp, err := entity.ParseAmount(in.FinalPrice)
		if err != nil {
			return nil, fmt.Errorf("finalPrice: %w", err)
		}
		finalPrice = &fp
	}

	var created *entity.Deposit
	err = s.runner.Run(ctx, "deposit.create", txrunner.CreationPolicy(), func(ctx context.Context) error {
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

		booking, err := uow.GetBookingRepository(ctx).FindOpenByUnit(ctx, unit.ID)
		if err != nil {
			return err
		}
		ownsBooking := booking != nil && booking.AgentID == in.AgentID
		switch {
		case booking != nil && !ownsBooking:
			return claimConflict(unit.ID, errs.ErrUnitAlreadyClaimed)
		case ownsBooking && booking.Status != entity.BookingConfirmed:
			return claimConflict(unit.ID, fmt.Errorf("%w: booking %s is still %s", errs.ErrDuplicateClaim, booking.Code, booking.Status))
		}

		ownsClaim := own != nil || ownsBooking
		if !project.AcceptsSales(ownsClaim) {
			return fmt.Errorf("%w: deposits need an open project or an own claim, project %s is %s",
				errs.ErrProjectPhase, project.ID, project.Phase)
		}
		if err := unit.CheckClaimable(ownsClaim); err != nil {
			return claimConflict(unit.ID, err)
		}

		existing, err := uow.GetDepositRepository(ctx).FindOpenByUnit(ctx, unit.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.AgentID == in.AgentID {
				return claimConflict(unit.ID, errs.ErrDuplicateClaim)
			}
			return claimConflict(unit.ID, errs.ErrUnitAlreadyClaimed)
		}

		price := entity.EffectivePrice(unit.Price, finalPrice)
		if err := entity.ValidateDepositAmount(amount, price, s.settings.DepositMinPercentage(ctx)); err != nil {
			return err
		}

		code, err := s.codes.Next(ctx, entity.FamilyDeposit)
		if err != nil {
			return err
		}

		now := s.timeProvider.Now()
		d := entity.NewDeposit(code, unit.ID, project.ID, in.AgentID, amount, price, finalPrice, in.Note, s.timeProvider)

		if ownsBooking {
			if err := booking.TransitionTo(entity.BookingUpgraded, now); err != nil {
				return err
			}
			if err := uow.GetBookingRepository(ctx).Update(ctx, booking); err != nil {
				return err
			}
			d.BookingID = &booking.ID
		}
		if own != nil {
			d.ReservationID = &own.ID
		}

		if err := uow.GetDepositRepository(ctx).Create(ctx, d); err != nil {
			if errors.Is(err, errs.ErrDuplicateKey) {
				return fmt.Errorf("%w: deposit insert raced: %s", errs.ErrConcurrentUpdate, err.Error())
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

		s.effects.Notify(ctx, d.AgentID, entity.NotifyDepositCreated, payload(d))
		s.effects.Audit(ctx, d.AgentID, entity.ActionCreate, entity.EntityDeposit, d.ID, nil, snapshot(d))
		created = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Deposit created", map[string]any{
		"depositId":  created.ID,
		"code":       created.Code,
		"unitId":     created.UnitID,
		"agentId":    created.AgentID,
		"amount":     entity.FormatAmount(created.DepositAmount),
		"percentage": created.DepositPercentage.StringFixed(2),
	})
	return created, nil
}
