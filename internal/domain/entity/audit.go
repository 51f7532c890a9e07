package entity

import "time"

// Audit actions
const (
	ActionCreate   = "CREATE"
	ActionApprove  = "APPROVE"
	ActionReject   = "REJECT"
	ActionCancel   = "CANCEL"
	ActionExpire   = "EXPIRE"
	ActionComplete = "COMPLETE"
	ActionCleanup  = "CLEANUP"
	ActionOpen     = "OPEN"
	ActionPay      = "PAY"
	ActionPromote  = "PROMOTE"
	ActionMiss     = "MISS"
)

// Audited entity types
const (
	EntityReservation = "reservation"
	EntityBooking     = "booking"
	EntityDeposit     = "deposit"
	EntityUnit        = "unit"
	EntityProject     = "project"
	EntityInstallment = "installment"
)

// AuditEntry is one record handed to the audit log
type AuditEntry struct {
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	OldValue   any
	NewValue   any
	CreatedAt  time.Time
}
