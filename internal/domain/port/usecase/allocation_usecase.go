package usecase

import (
	"context"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
)

// UnitStatusSynchronizer recomputes a unit's derived status from its active claims.
// Claim lifecycles call it after commit; it never calls back into them.
type UnitStatusSynchronizer interface {
	Sync(ctx context.Context, unitID string) (status entity.UnitStatus, changed bool, err error)
}

// AdvanceResult describes what a queue advance did
type AdvanceResult struct {
	Advanced    bool
	Reservation *entity.Reservation // Promoted reservation when Advanced
	Reason      string              // Why nothing was promoted
}

// QueueAdvancer promotes the head of a unit's reservation queue
type QueueAdvancer interface {
	MoveToNextInQueue(ctx context.Context, unitID string) (AdvanceResult, error)
}

// SweepResult summarises a scheduled sweep
type SweepResult struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// CodeGenerator issues sequential human-readable codes
type CodeGenerator interface {
	// Next joins the transaction carried by ctx when there is one
	Next(ctx context.Context, family entity.CodeFamily) (string, error)
}

// ReservationUpgrader lets sale claims take over a reservation inside their own transaction
type ReservationUpgrader interface {
	// UpgradableReservation returns the agent's queued reservation on the unit, or nil.
	// An ACTIVE reservation is refused with ErrUnitAlreadyClaimed while another agent holds the turn.
	UpgradableReservation(ctx context.Context, unitID, agentID string) (*entity.Reservation, error)

	// CompleteForUpgrade completes the reservation and marks the other queued reservations MISSED
	CompleteForUpgrade(ctx context.Context, reservation *entity.Reservation) error
}
