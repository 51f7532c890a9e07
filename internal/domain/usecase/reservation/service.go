// Package reservation manages the per-unit waiting queues of agents.
package reservation

import (
	"context"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/unit-allocator/internal/domain/port/core"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/postcommit"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/settings"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/txrunner"
)

// sweepLimit bounds the records handled by one sweep run; the next run picks up the rest
const sweepLimit = 500

// Service implements the reservation queue
type Service struct {
	runner       *txrunner.Runner
	codes        usecase.CodeGenerator
	settings     *settings.Provider
	effects      *postcommit.Effects
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

var (
	_ usecase.QueueAdvancer       = (*Service)(nil)
	_ usecase.ReservationUpgrader = (*Service)(nil)
)

// NewService creates a new reservation service
func NewService(
	runner *txrunner.Runner,
	codes usecase.CodeGenerator,
	settings *settings.Provider,
	effects *postcommit.Effects,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *Service {
	return &Service{
		runner:       runner,
		codes:        codes,
		settings:     settings,
		effects:      effects,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

func payload(r *entity.Reservation) map[string]any {
	p := map[string]any{
		"reservationId": r.ID,
		"code":          r.Code,
		"unitId":        r.UnitID,
		"status":        string(r.Status),
		"reservedUntil": r.ReservedUntil,
	}
	if r.DepositDeadline != nil {
		p["depositDeadline"] = *r.DepositDeadline
	}
	return p
}

func snapshot(r *entity.Reservation) map[string]any {
	return map[string]any{"status": string(r.Status), "priority": r.Priority}
}

// Get returns a reservation by ID
func (s *Service) Get(ctx context.Context, id string) (*entity.Reservation, error) {
	return s.runner.UnitOfWork().GetReservationRepository(ctx).GetByID(ctx, id)
}
