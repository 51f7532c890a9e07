// Package unitstatus keeps a unit's visible status consistent with the claims that reference it.
package unitstatus

import (
	"context"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/unit-allocator/internal/domain/port/core"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/txrunner"
)

// Synchronizer derives and persists unit statuses
type Synchronizer struct {
	runner       *txrunner.Runner
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

var _ usecase.UnitStatusSynchronizer = (*Synchronizer)(nil)

// NewSynchronizer creates a new Synchronizer
func NewSynchronizer(runner *txrunner.Runner, timeProvider coreport.TimeProvider, logger coreport.Logger) *Synchronizer {
	return &Synchronizer{
		runner:       runner,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Sync recomputes the unit's status and writes it only when it differs.
// SOLD and DEPOSITED are returned untouched.
func (s *Synchronizer) Sync(ctx context.Context, unitID string) (entity.UnitStatus, bool, error) {
	var status entity.UnitStatus
	var changed bool

	err := s.runner.Run(ctx, "unit.sync", txrunner.DefaultPolicy(), func(ctx context.Context) error {
		status, changed = "", false

		uow := s.runner.UnitOfWork()
		unit, err := uow.GetUnitRepository(ctx).GetByID(ctx, unitID)
		if err != nil {
			return err
		}
		status = unit.Status
		if unit.Status.IsSticky() {
			return nil
		}

		active, err := s.hasActiveClaims(ctx, unitID)
		if err != nil {
			return err
		}

		target := entity.DeriveUnitStatus(unit.Status, active)
		if target == unit.Status {
			return nil
		}

		if err := uow.GetUnitRepository(ctx).UpdateStatus(ctx, unitID, target, s.timeProvider.Now()); err != nil {
			return err
		}
		status, changed = target, true
		return nil
	})
	if err != nil {
		return "", false, err
	}

	if changed {
		s.logger.Info("Unit status synchronized", map[string]any{
			"unitId": unitID,
			"status": string(status),
		})
	}
	return status, changed, nil
}

// hasActiveClaims reports whether a queued reservation, an open booking or a pending deposit references the unit
func (s *Synchronizer) hasActiveClaims(ctx context.Context, unitID string) (bool, error) {
	uow := s.runner.UnitOfWork()

	reservations, err := uow.GetReservationRepository(ctx).CountByUnit(ctx, unitID, entity.QueuedReservationStatuses())
	if err != nil || reservations > 0 {
		return reservations > 0, err
	}

	bookings, err := uow.GetBookingRepository(ctx).CountByUnit(ctx, unitID, entity.OpenBookingStatuses())
	if err != nil || bookings > 0 {
		return bookings > 0, err
	}

	// Confirmed and overdue deposits normally sit behind a sticky DEPOSITED status. They still
	// count here so a unit lifted out of DEPOSITED is never derived as free while one is open.
	deposits, err := uow.GetDepositRepository(ctx).CountByUnit(ctx, unitID, entity.OpenDepositStatuses())
	if err != nil {
		return false, err
	}
	return deposits > 0, nil
}

// ReconcileResult summarises a reconciliation sweep
type ReconcileResult struct {
	Checked int `json:"checked"`
	Changed int `json:"changed"`
	Failed  int `json:"failed"`
}

// Reconcile re-derives the status of every non-sticky unit of a project, or of all projects
// when projectID is empty. It repairs drift left by failed post-commit resyncs.
func (s *Synchronizer) Reconcile(ctx context.Context, projectID string) (ReconcileResult, error) {
	var ids []string
	err := s.runner.Run(ctx, "unit.reconcile.list", txrunner.BulkPolicy(), func(ctx context.Context) error {
		var err error
		ids, err = s.runner.UnitOfWork().GetUnitRepository(ctx).ListIDs(ctx, projectID,
			[]entity.UnitStatus{entity.UnitAvailable, entity.UnitReservedBooking})
		return err
	})
	if err != nil {
		return ReconcileResult{}, err
	}

	result := ReconcileResult{}
	for _, id := range ids {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		result.Checked++
		_, changed, err := s.Sync(ctx, id)
		if err != nil {
			result.Failed++
			s.logger.Warn("Failed to reconcile unit status", map[string]any{
				"unitId": id,
				"error":  err.Error(),
			})
			continue
		}
		if changed {
			result.Changed++
		}
	}

	s.logger.Info("Unit status reconciliation finished", map[string]any{
		"projectId": projectID,
		"checked":   result.Checked,
		"changed":   result.Changed,
		"failed":    result.Failed,
	})
	return result, nil
}
