package entity

import (
	"time"

	coreport "github.com/amirhossein-jamali/unit-allocator/internal/domain/port/core"
	"github.com/google/uuid"
)

// ReservationStatus is the state of a queue ticket
type ReservationStatus string

// Reservation statuses
const (
	ReservationActive    ReservationStatus = "ACTIVE"
	ReservationYourTurn  ReservationStatus = "YOUR_TURN"
	ReservationMissed    ReservationStatus = "MISSED"
	ReservationExpired   ReservationStatus = "EXPIRED"
	ReservationCancelled ReservationStatus = "CANCELLED"
	ReservationCompleted ReservationStatus = "COMPLETED"
)

var reservationTransitions = transitionTable[ReservationStatus]{
	ReservationActive:   {ReservationYourTurn, ReservationExpired, ReservationCancelled, ReservationCompleted},
	ReservationYourTurn: {ReservationCompleted, ReservationMissed, ReservationExpired, ReservationCancelled},
	ReservationMissed:   {ReservationCancelled},
	ReservationExpired:  {ReservationCancelled},
}

// QueuedReservationStatuses are the statuses that hold a place in a unit's queue
func QueuedReservationStatuses() []ReservationStatus {
	return []ReservationStatus{ReservationActive, ReservationYourTurn}
}

// Reservation is an agent's ticket in a unit's waiting queue
type Reservation struct {
	ID              string
	Code            string // Human-readable code, e.g. RS000007
	UnitID          string
	ProjectID       string
	AgentID         string
	Status          ReservationStatus
	Priority        int        // Queue rank, lower is earlier
	ReservedUntil   time.Time  // Hard expiry
	DepositDeadline *time.Time // Set once promoted to YOUR_TURN
	Note            string
	CancelledBy     string
	CancelReason    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewReservation creates an ACTIVE reservation at the given queue position
func NewReservation(
	code, unitID, projectID, agentID, note string,
	priority int,
	reservedUntil time.Time,
	timeProvider coreport.TimeProvider,
) *Reservation {
	now := timeProvider.Now()
	return &Reservation{
		ID:            uuid.NewString(),
		Code:          code,
		UnitID:        unitID,
		ProjectID:     projectID,
		AgentID:       agentID,
		Status:        ReservationActive,
		Priority:      priority,
		ReservedUntil: reservedUntil,
		Note:          note,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// ReservationExpiry returns min(openDate, now + duration). A reservation never outlives the sale opening.
func ReservationExpiry(now time.Time, openDate *time.Time, duration time.Duration) time.Time {
	until := now.Add(duration)
	if openDate != nil && openDate.Before(until) {
		return *openDate
	}
	return until
}

// IsQueued reports whether the reservation still holds a place in the queue
func (r *Reservation) IsQueued() bool {
	return r.Status == ReservationActive || r.Status == ReservationYourTurn
}

// IsTerminal reports whether no further transition is possible
func (r *Reservation) IsTerminal() bool {
	return reservationTransitions.isTerminal(r.Status)
}

// TransitionTo validates and applies a status change
func (r *Reservation) TransitionTo(status ReservationStatus, now time.Time) error {
	if err := reservationTransitions.check("reservation", r.Status, status); err != nil {
		return err
	}
	r.Status = status
	r.UpdatedAt = now
	return nil
}

// PromoteToYourTurn gives the reservation the first right to deposit until deadline.
// The hard expiry is pushed to the deadline so the turn cannot lapse earlier.
func (r *Reservation) PromoteToYourTurn(deadline time.Time, now time.Time) error {
	if err := r.TransitionTo(ReservationYourTurn, now); err != nil {
		return err
	}
	r.DepositDeadline = &deadline
	if r.ReservedUntil.Before(deadline) {
		r.ReservedUntil = deadline
	}
	return nil
}

// Cancel marks the reservation cancelled by the given actor
func (r *Reservation) Cancel(actorID, reason string, now time.Time) error {
	if err := r.TransitionTo(ReservationCancelled, now); err != nil {
		return err
	}
	r.CancelledBy = actorID
	r.CancelReason = reason
	return nil
}

// IsPastExpiry reports whether the hard expiry has passed
func (r *Reservation) IsPastExpiry(now time.Time) bool {
	return r.IsQueued() && r.ReservedUntil.Before(now)
}

// IsPastDepositDeadline reports whether a YOUR_TURN reservation missed its deadline
func (r *Reservation) IsPastDepositDeadline(now time.Time) bool {
	return r.Status == ReservationYourTurn && r.DepositDeadline != nil && r.DepositDeadline.Before(now)
}

// Supersede force-marks a queued reservation MISSED because another reservation on the
// same unit was upgraded to a sale claim. ACTIVE→MISSED is not in the transition table,
// so this bypasses it.
func (r *Reservation) Supersede(now time.Time) bool {
	if !r.IsQueued() {
		return false
	}
	r.Status = ReservationMissed
	r.UpdatedAt = now
	return true
}
