package entity

import (
	"time"

	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	"github.com/shopspring/decimal"
)

// UnitStatus is the externally visible status of a unit
type UnitStatus string

// Unit statuses
const (
	UnitAvailable       UnitStatus = "AVAILABLE"
	UnitReservedBooking UnitStatus = "RESERVED_BOOKING"
	UnitDeposited       UnitStatus = "DEPOSITED"
	UnitSold            UnitStatus = "SOLD"
)

// IsSticky reports whether automated processes must leave the status untouched
func (s UnitStatus) IsSticky() bool {
	return s == UnitSold || s == UnitDeposited
}

// IsValid checks the status against the known set
func (s UnitStatus) IsValid() bool {
	switch s {
	case UnitAvailable, UnitReservedBooking, UnitDeposited, UnitSold:
		return true
	}
	return false
}

// Unit is the contended resource agents compete for
type Unit struct {
	ID        string          // Unique identifier
	ProjectID string          // Project the unit belongs to
	Code      string          // Catalog code, e.g. "A-12-05"
	Price     decimal.Decimal // List price
	Status    UnitStatus      // Current visible status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DeriveUnitStatus computes the status a unit should have given whether any active claim references it.
// Sticky statuses are returned unchanged.
func DeriveUnitStatus(current UnitStatus, hasActiveClaims bool) UnitStatus {
	if current.IsSticky() {
		return current
	}
	if hasActiveClaims {
		return UnitReservedBooking
	}
	return UnitAvailable
}

// CheckClaimable decides whether a booking or deposit may be placed on the unit.
// ownsReservation reports whether the caller holds a live reservation on it.
func (u *Unit) CheckClaimable(ownsReservation bool) error {
	switch u.Status {
	case UnitSold:
		return errs.ErrUnitSold
	case UnitDeposited:
		return errs.ErrUnitDeposited
	case UnitAvailable:
		return nil
	case UnitReservedBooking:
		if ownsReservation {
			return nil
		}
		return errs.ErrUnitAlreadyClaimed
	default:
		return errs.ErrUnitAlreadyClaimed
	}
}
