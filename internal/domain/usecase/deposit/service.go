// Package deposit implements the confirmed-sale claim, its payment schedule and the sale completion.
package deposit

import (
	"context"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	coreport "github.com/amirhossein-jamali/unit-allocator/internal/domain/port/core"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/port/external"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/postcommit"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/settings"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/txrunner"
)

const sweepLimit = 500

// Service implements the deposit lifecycle
type Service struct {
	runner       *txrunner.Runner
	codes        usecase.CodeGenerator
	reservations usecase.ReservationUpgrader
	settings     *settings.Provider
	effects      *postcommit.Effects
	commission   external.CommissionCalculator
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewService creates a new deposit service
func NewService(
	runner *txrunner.Runner,
	codes usecase.CodeGenerator,
	reservations usecase.ReservationUpgrader,
	settings *settings.Provider,
	effects *postcommit.Effects,
	commission external.CommissionCalculator,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *Service {
	return &Service{
		runner:       runner,
		codes:        codes,
		reservations: reservations,
		settings:     settings,
		effects:      effects,
		commission:   commission,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

func payload(d *entity.Deposit) map[string]any {
	return map[string]any{
		"depositId":         d.ID,
		"code":              d.Code,
		"unitId":            d.UnitID,
		"status":            string(d.Status),
		"depositAmount":     entity.FormatAmount(d.DepositAmount),
		"depositPercentage": d.DepositPercentage.StringFixed(2),
	}
}

func snapshot(d *entity.Deposit) map[string]any {
	return map[string]any{"status": string(d.Status)}
}

func requireAdmin(actor entity.Actor) error {
	if !actor.IsAdmin() {
		return errs.ErrForbidden
	}
	return nil
}

func claimConflict(unitID string, err error) error {
	if errs.IsConflictError(err) {
		return errs.NewClaimConflictError(unitID, "deposit", err)
	}
	return err
}

// Get returns a deposit by ID
func (s *Service) Get(ctx context.Context, id string) (*entity.Deposit, error) {
	return s.runner.UnitOfWork().GetDepositRepository(ctx).GetByID(ctx, id)
}

// Schedule returns the payment schedule of a deposit
func (s *Service) Schedule(ctx context.Context, depositID string) ([]entity.Installment, error) {
	return s.runner.UnitOfWork().GetInstallmentRepository(ctx).ListByDeposit(ctx, depositID)
}

// cancelSchedule voids the unpaid rows of a deposit's schedule
func (s *Service) cancelSchedule(ctx context.Context, depositID string) error {
	repo := s.runner.UnitOfWork().GetInstallmentRepository(ctx)
	schedule, err := repo.ListByDeposit(ctx, depositID)
	if err != nil {
		return err
	}
	now := s.timeProvider.Now()
	for i := range schedule {
		if !schedule[i].Cancel(now) {
			continue
		}
		if err := repo.Update(ctx, &schedule[i]); err != nil {
			return err
		}
	}
	return nil
}
