package error

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for standardized API responses
const (
	// 4xxx - Client errors
	CodeInvalidRequest     = 4000
	CodeInvalidAmount      = 4002
	CodeAmountBelowMinimum = 4003
	CodeAmountExceedsPrice = 4004
	CodeForbidden          = 4030
	CodeNotFound           = 4040
	CodeUnitAlreadyClaimed = 4090
	CodeDuplicateClaim     = 4091
	CodeInvalidTransition  = 4092
	CodeUnitSold           = 4093
	CodeUnitDeposited      = 4094
	CodeProjectPhase       = 4095
	CodeProjectAlreadyOpen = 4096
	CodeRetryLater         = 4290
	CodeConcurrentUpdate   = 4291

	// 5xxx - Server errors
	CodeInternalServer     = 5000
	CodeCodeGeneration     = 5001
	CodeDatabaseConnection = 5030
)

// Base error types
var (
	// ErrInvalidRequest is returned when the request shape or range is invalid
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidAmount is returned when a monetary amount is not a positive number
	ErrInvalidAmount = errors.New("amount must be a positive number")

	// ErrAmountBelowMinimum is returned when a deposit is lower than the configured minimum percentage
	ErrAmountBelowMinimum = errors.New("amount is below the required minimum")

	// ErrAmountExceedsPrice is returned when a deposit is higher than the unit price
	ErrAmountExceedsPrice = errors.New("amount exceeds unit price")

	// ErrForbidden is returned when the actor is neither the owner of a claim nor an administrator
	ErrForbidden = errors.New("actor is not allowed to perform this action")

	// ErrNotFound is returned when a generic resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrUnitNotFound is returned when the requested unit doesn't exist
	ErrUnitNotFound = fmt.Errorf("unit: %w", ErrNotFound)

	// ErrProjectNotFound is returned when the requested project doesn't exist
	ErrProjectNotFound = fmt.Errorf("project: %w", ErrNotFound)

	// ErrReservationNotFound is returned when the requested reservation doesn't exist
	ErrReservationNotFound = fmt.Errorf("reservation: %w", ErrNotFound)

	// ErrBookingNotFound is returned when the requested booking doesn't exist
	ErrBookingNotFound = fmt.Errorf("booking: %w", ErrNotFound)

	// ErrDepositNotFound is returned when the requested deposit doesn't exist
	ErrDepositNotFound = fmt.Errorf("deposit: %w", ErrNotFound)

	// ErrInstallmentNotFound is returned when the requested payment schedule row doesn't exist
	ErrInstallmentNotFound = fmt.Errorf("installment: %w", ErrNotFound)

	// ErrProcessingLogNotFound is returned when the requested processing log doesn't exist
	ErrProcessingLogNotFound = fmt.Errorf("processing log: %w", ErrNotFound)

	// ErrUnitSold is returned when a claim targets a sold unit
	ErrUnitSold = errors.New("unit is already sold")

	// ErrUnitDeposited is returned when a claim targets a unit with an approved deposit
	ErrUnitDeposited = errors.New("unit is already deposited")

	// ErrUnitAlreadyClaimed is returned when the unit is held by another agent
	ErrUnitAlreadyClaimed = errors.New("unit is already claimed by someone else")

	// ErrDuplicateClaim is returned when the agent already holds an active claim of the same kind on the unit
	ErrDuplicateClaim = errors.New("agent already holds an active claim on this unit")

	// ErrInvalidTransition is returned when a status change is not allowed by the state machine
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrProjectPhase is returned when the project phase does not allow the operation
	ErrProjectPhase = errors.New("operation not allowed in the current project phase")

	// ErrProjectAlreadyOpen is returned when opening a project that is already open
	ErrProjectAlreadyOpen = errors.New("project is already open for sale")

	// ErrConcurrentUpdate is returned when the store reports a serialization failure or deadlock
	ErrConcurrentUpdate = errors.New("concurrent update detected")

	// ErrRetryLater is returned when a transactional operation exhausted its retry budget
	ErrRetryLater = errors.New("the system is busy, please retry")

	// ErrDuplicateKey is returned when a unique constraint is violated
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrCodeGeneration is returned when no unique code could be produced
	ErrCodeGeneration = errors.New("failed to generate a unique code")

	// ErrDatabaseConnection is returned when there's a problem talking to the database
	ErrDatabaseConnection = errors.New("database connection error")

	// ErrInternalServer is returned for unexpected server-side errors
	ErrInternalServer = errors.New("internal server error")
)

// Category groups errors by how callers are expected to react to them
type Category string

const (
	CategoryValidation  Category = "VALIDATION"
	CategoryConflict    Category = "CONFLICT"
	CategoryNotFound    Category = "NOT_FOUND"
	CategoryForbidden   Category = "FORBIDDEN"
	CategoryConcurrency Category = "CONCURRENCY"
	CategoryFatal       Category = "FATAL"
)

// Classify returns the category of an error
func Classify(err error) Category {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRetryLater), errors.Is(err, ErrConcurrentUpdate):
		return CategoryConcurrency
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrAmountBelowMinimum),
		errors.Is(err, ErrAmountExceedsPrice):
		return CategoryValidation
	case errors.Is(err, ErrNotFound):
		return CategoryNotFound
	case errors.Is(err, ErrForbidden):
		return CategoryForbidden
	case errors.Is(err, ErrUnitSold),
		errors.Is(err, ErrUnitDeposited),
		errors.Is(err, ErrUnitAlreadyClaimed),
		errors.Is(err, ErrDuplicateClaim),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrProjectPhase),
		errors.Is(err, ErrProjectAlreadyOpen):
		return CategoryConflict
	default:
		return CategoryFatal
	}
}

// ErrorCode returns standardized error codes for known errors
func ErrorCode(err error) int {
	switch {
	case errors.Is(err, ErrRetryLater):
		return CodeRetryLater
	case errors.Is(err, ErrConcurrentUpdate):
		return CodeConcurrentUpdate
	case errors.Is(err, ErrInvalidAmount):
		return CodeInvalidAmount
	case errors.Is(err, ErrAmountBelowMinimum):
		return CodeAmountBelowMinimum
	case errors.Is(err, ErrAmountExceedsPrice):
		return CodeAmountExceedsPrice
	case errors.Is(err, ErrInvalidRequest):
		return CodeInvalidRequest
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrUnitAlreadyClaimed):
		return CodeUnitAlreadyClaimed
	case errors.Is(err, ErrDuplicateClaim):
		return CodeDuplicateClaim
	case errors.Is(err, ErrInvalidTransition):
		return CodeInvalidTransition
	case errors.Is(err, ErrUnitSold):
		return CodeUnitSold
	case errors.Is(err, ErrUnitDeposited):
		return CodeUnitDeposited
	case errors.Is(err, ErrProjectAlreadyOpen):
		return CodeProjectAlreadyOpen
	case errors.Is(err, ErrProjectPhase):
		return CodeProjectPhase
	case errors.Is(err, ErrCodeGeneration):
		return CodeCodeGeneration
	case errors.Is(err, ErrDatabaseConnection):
		return CodeDatabaseConnection
	default:
		return CodeInternalServer
	}
}

// ValidationError describes a rejected input field
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// Error implements the error interface for ValidationError
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidRequest.Error(), e.Field, e.Reason)
}

// Is reports whether the target is ErrInvalidRequest
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidRequest
}

// LogFields returns a map of fields for structured logging
func (e *ValidationError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "validation_error",
		"field":      e.Field,
		"reason":     e.Reason,
		"error_code": CodeInvalidRequest,
	}
}

// InvalidTransitionError is returned when a state machine rejects a transition
type InvalidTransitionError struct {
	Entity  string
	From    string
	To      string
	Allowed []string
}

// NewInvalidTransitionError creates a new InvalidTransitionError
func NewInvalidTransitionError(entity, from, to string, allowed []string) *InvalidTransitionError {
	return &InvalidTransitionError{Entity: entity, From: from, To: to, Allowed: allowed}
}

// Error implements the error interface for InvalidTransitionError
func (e *InvalidTransitionError) Error() string {
	allowed := "none"
	if len(e.Allowed) > 0 {
		allowed = strings.Join(e.Allowed, ", ")
	}
	return fmt.Sprintf("%s: %s cannot move from %s to %s (allowed: %s)",
		ErrInvalidTransition.Error(), e.Entity, e.From, e.To, allowed)
}

// Is reports whether the target is ErrInvalidTransition
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// LogFields returns a map of fields for structured logging
func (e *InvalidTransitionError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "invalid_transition",
		"entity":     e.Entity,
		"from":       e.From,
		"to":         e.To,
		"allowed":    e.Allowed,
		"error_code": CodeInvalidTransition,
	}
}

// ClaimConflictError carries the unit and the reason a claim attempt was rejected
type ClaimConflictError struct {
	UnitID string
	Claim  string
	Err    error
}

// NewClaimConflictError creates a new ClaimConflictError
func NewClaimConflictError(unitID, claim string, err error) *ClaimConflictError {
	return &ClaimConflictError{UnitID: unitID, Claim: claim, Err: err}
}

// Error implements the error interface for ClaimConflictError
func (e *ClaimConflictError) Error() string {
	return fmt.Sprintf("%s rejected for unit %s: %v", e.Claim, e.UnitID, e.Err)
}

// Unwrap returns the underlying error
func (e *ClaimConflictError) Unwrap() error {
	return e.Err
}

// LogFields returns a map of fields for structured logging
func (e *ClaimConflictError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "claim_conflict",
		"unit_id":    e.UnitID,
		"claim":      e.Claim,
		"error":      e.Err.Error(),
		"error_code": ErrorCode(e.Err),
	}
}

// RetryExhaustedError is returned when a transactional operation kept conflicting
type RetryExhaustedError struct {
	Operation string
	Attempts  int
	Err       error
}

// Error implements the error interface for RetryExhaustedError
func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("%s: %s gave up after %d attempts: %v", ErrRetryLater.Error(), e.Operation, e.Attempts, e.Err)
}

// Unwrap returns the underlying error
func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}

// Is reports whether the target is ErrRetryLater
func (e *RetryExhaustedError) Is(target error) bool {
	return target == ErrRetryLater
}

// LogFields returns a map of fields for structured logging
func (e *RetryExhaustedError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "retry_exhausted",
		"operation":  e.Operation,
		"attempts":   e.Attempts,
		"error":      e.Err.Error(),
		"error_code": CodeRetryLater,
	}
}

// IsNotFoundError checks if an error is any not-found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflictError checks if an error is a business conflict that must not be retried
func IsConflictError(err error) bool {
	return Classify(err) == CategoryConflict
}

// IsRetryable checks if an error is a transient store conflict
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentUpdate)
}
