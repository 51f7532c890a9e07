package entity

import (
	"time"

	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	coreport "github.com/amirhossein-jamali/unit-allocator/internal/domain/port/core"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DepositStatus is the state of a deposit
type DepositStatus string

// Deposit statuses
const (
	DepositPendingApproval DepositStatus = "PENDING_APPROVAL"
	DepositConfirmed       DepositStatus = "CONFIRMED"
	DepositOverdue         DepositStatus = "OVERDUE"
	DepositCancelled       DepositStatus = "CANCELLED"
	DepositCompleted       DepositStatus = "COMPLETED"
)

var depositTransitions = transitionTable[DepositStatus]{
	DepositPendingApproval: {DepositConfirmed, DepositCancelled},
	DepositConfirmed:       {DepositOverdue, DepositCompleted, DepositCancelled},
	DepositOverdue:         {DepositConfirmed, DepositCompleted, DepositCancelled},
}

// OpenDepositStatuses are the non-terminal deposit statuses
func OpenDepositStatuses() []DepositStatus {
	return []DepositStatus{DepositPendingApproval, DepositConfirmed, DepositOverdue}
}

// Deposit is the confirmed-sale claim on a unit
type Deposit struct {
	ID                string
	Code              string // e.g. DP000003
	UnitID            string
	ProjectID         string
	AgentID           string
	BookingID         *string // Booking upgraded by this deposit, if any
	ReservationID     *string // Reservation completed by this deposit, if any
	DepositAmount     decimal.Decimal
	DepositPercentage decimal.Decimal  // Share of the effective price, two decimals
	FinalPrice        *decimal.Decimal // Negotiated override of the list price
	Status            DepositStatus
	ApprovedBy        string
	ApprovedAt        *time.Time
	CompletedAt       *time.Time
	CancelledBy       string
	CancelReason      string
	Note              string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewDeposit creates a deposit awaiting administrator approval
func NewDeposit(
	code, unitID, projectID, agentID string,
	amount, price decimal.Decimal,
	finalPrice *decimal.Decimal,
	note string,
	timeProvider coreport.TimeProvider,
) *Deposit {
	now := timeProvider.Now()
	return &Deposit{
		ID:                uuid.NewString(),
		Code:              code,
		UnitID:            unitID,
		ProjectID:         projectID,
		AgentID:           agentID,
		DepositAmount:     amount,
		DepositPercentage: PercentageOf(amount, price),
		FinalPrice:        finalPrice,
		Status:            DepositPendingApproval,
		Note:              note,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// EffectivePrice returns the final price when negotiated, else the list price
func EffectivePrice(listPrice decimal.Decimal, finalPrice *decimal.Decimal) decimal.Decimal {
	if finalPrice != nil && finalPrice.IsPositive() {
		return *finalPrice
	}
	return listPrice
}

// ValidateDepositAmount checks 0 < amount <= price and amount >= ceil(price * minPercentage / 100)
func ValidateDepositAmount(amount, price, minPercentage decimal.Decimal) error {
	if !amount.IsPositive() {
		return errs.ErrInvalidAmount
	}
	if amount.GreaterThan(price) {
		return errs.ErrAmountExceedsPrice
	}
	if amount.LessThan(CeilPercentOf(price, minPercentage)) {
		return errs.ErrAmountBelowMinimum
	}
	return nil
}

// IsOpen reports whether the deposit still claims its unit
func (d *Deposit) IsOpen() bool {
	return !depositTransitions.isTerminal(d.Status)
}

// TransitionTo validates and applies a status change
func (d *Deposit) TransitionTo(status DepositStatus, now time.Time) error {
	if err := depositTransitions.check("deposit", d.Status, status); err != nil {
		return err
	}
	d.Status = status
	d.UpdatedAt = now
	return nil
}

// Approve confirms the deposit
func (d *Deposit) Approve(adminID string, now time.Time) error {
	if err := d.TransitionTo(DepositConfirmed, now); err != nil {
		return err
	}
	d.ApprovedBy = adminID
	d.ApprovedAt = &now
	return nil
}

// Complete closes the deposit once the sale is fully paid
func (d *Deposit) Complete(now time.Time) error {
	if err := d.TransitionTo(DepositCompleted, now); err != nil {
		return err
	}
	d.CompletedAt = &now
	return nil
}

// Cancel marks the deposit cancelled by the given actor
func (d *Deposit) Cancel(actorID, reason string, now time.Time) error {
	if err := d.TransitionTo(DepositCancelled, now); err != nil {
		return err
	}
	d.CancelledBy = actorID
	d.CancelReason = reason
	return nil
}
