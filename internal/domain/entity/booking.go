package entity

import (
	"fmt"
	"strings"
	"time"

	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	coreport "github.com/amirhossein-jamali/unit-allocator/internal/domain/port/core"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookingStatus is the state of a booking
type BookingStatus string

// Booking statuses
const (
	BookingPendingPayment  BookingStatus = "PENDING_PAYMENT"
	BookingPendingApproval BookingStatus = "PENDING_APPROVAL"
	BookingConfirmed       BookingStatus = "CONFIRMED"
	BookingCancelled       BookingStatus = "CANCELLED"
	BookingExpired         BookingStatus = "EXPIRED"
	BookingUpgraded        BookingStatus = "UPGRADED"
)

var bookingTransitions = transitionTable[BookingStatus]{
	BookingPendingPayment:  {BookingPendingApproval, BookingCancelled, BookingExpired},
	BookingPendingApproval: {BookingConfirmed, BookingCancelled, BookingExpired},
	BookingConfirmed:       {BookingCancelled, BookingUpgraded},
}

// OpenBookingStatuses are the non-terminal booking statuses
func OpenBookingStatuses() []BookingStatus {
	return []BookingStatus{BookingPendingPayment, BookingPendingApproval, BookingConfirmed}
}

// ExpirableBookingStatuses are the statuses swept once expiresAt passes
func ExpirableBookingStatuses() []BookingStatus {
	return []BookingStatus{BookingPendingPayment, BookingPendingApproval}
}

// Booking is an interim paid claim placed while a project is open
type Booking struct {
	ID            string
	Code          string // e.g. BK000042
	UnitID        string
	ProjectID     string
	AgentID       string
	ReservationID *string // Reservation upgraded by this booking, if any
	Amount        decimal.Decimal
	PaymentProof  string
	Status        BookingStatus
	ExpiresAt     time.Time
	RefundAmount  *decimal.Decimal
	ApprovedBy    string
	ApprovedAt    *time.Time
	CancelledBy   string
	CancelReason  string
	Note          string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewBooking creates a booking, awaiting approval when payment proof is attached
func NewBooking(
	code, unitID, projectID, agentID string,
	amount decimal.Decimal,
	paymentProof, note string,
	expiresAt time.Time,
	timeProvider coreport.TimeProvider,
) *Booking {
	now := timeProvider.Now()
	status := BookingPendingPayment
	if strings.TrimSpace(paymentProof) != "" {
		status = BookingPendingApproval
	}
	return &Booking{
		ID:           uuid.NewString(),
		Code:         code,
		UnitID:       unitID,
		ProjectID:    projectID,
		AgentID:      agentID,
		Amount:       amount,
		PaymentProof: paymentProof,
		Status:       status,
		ExpiresAt:    expiresAt,
		Note:         note,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsOpen reports whether the booking still claims its unit
func (b *Booking) IsOpen() bool {
	return !bookingTransitions.isTerminal(b.Status)
}

// TransitionTo validates and applies a status change
func (b *Booking) TransitionTo(status BookingStatus, now time.Time) error {
	if err := bookingTransitions.check("booking", b.Status, status); err != nil {
		return err
	}
	b.Status = status
	b.UpdatedAt = now
	return nil
}

// IsPastExpiry reports whether an unpaid or unapproved booking outlived expiresAt
func (b *Booking) IsPastExpiry(now time.Time) bool {
	return (b.Status == BookingPendingPayment || b.Status == BookingPendingApproval) && b.ExpiresAt.Before(now)
}

// RefundPolicy decides how much of a booking amount is returned on cancellation
type RefundPolicy struct {
	ConfirmedPercentage decimal.Decimal // Applied to CONFIRMED bookings
	DefaultPercentage   decimal.Decimal // Applied to every other status
}

// DefaultRefundPolicy refunds 50% of a confirmed booking and everything otherwise
func DefaultRefundPolicy() RefundPolicy {
	return RefundPolicy{
		ConfirmedPercentage: decimal.NewFromInt(50),
		DefaultPercentage:   decimal.NewFromInt(100),
	}
}

// RefundFor computes the refund for a booking in its current, pre-cancellation status
func (p RefundPolicy) RefundFor(b *Booking) decimal.Decimal {
	pct := p.DefaultPercentage
	if b.Status == BookingConfirmed {
		pct = p.ConfirmedPercentage
	}
	return PercentOf(b.Amount, pct)
}

// Booking amount types
const (
	BookingAmountFixed      = "FIXED"
	BookingAmountPercentage = "PERCENTAGE"
)

// BookingAmountRule describes how a booking's amount is derived from the unit price
type BookingAmountRule struct {
	Type       string
	Fixed      decimal.Decimal
	Percentage decimal.Decimal
}

// AmountFor returns the booking amount for a unit price
func (r BookingAmountRule) AmountFor(price decimal.Decimal) (decimal.Decimal, error) {
	switch strings.ToUpper(r.Type) {
	case BookingAmountPercentage:
		return PercentOf(price, r.Percentage), nil
	case BookingAmountFixed, "":
		return r.Fixed, nil
	default:
		return decimal.Zero, fmt.Errorf("%w: unknown booking amount type %q", errs.ErrInvalidRequest, r.Type)
	}
}
