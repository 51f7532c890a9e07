package error

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFoundErrorsWrapBase(t *testing.T) {
	for _, err := range []error{
		ErrUnitNotFound, ErrProjectNotFound, ErrReservationNotFound, ErrBookingNotFound,
		ErrDepositNotFound, ErrInstallmentNotFound, ErrProcessingLogNotFound,
	} {
		if !IsNotFoundError(err) {
			t.Errorf("%v should be a not-found error", err)
		}
	}
}

func TestErrorCode(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected int
	}{
		{"UnitAlreadyClaimed", ErrUnitAlreadyClaimed, CodeUnitAlreadyClaimed},
		{"UnitSold", ErrUnitSold, CodeUnitSold},
		{"BookingNotFound", ErrBookingNotFound, CodeNotFound},
		{"AmountBelowMinimum", ErrAmountBelowMinimum, CodeAmountBelowMinimum},
		{"Validation", NewValidationError("agentId", "is required"), CodeInvalidRequest},
		{"Transition", NewInvalidTransitionError("booking", "EXPIRED", "CONFIRMED", nil), CodeInvalidTransition},
		{"RetryExhausted", &RetryExhaustedError{Operation: "op", Attempts: 3, Err: ErrConcurrentUpdate}, CodeRetryLater},
		{"ClaimConflict", NewClaimConflictError("u1", "booking", ErrUnitDeposited), CodeUnitDeposited},
		{"UnknownError", errors.New("unknown error"), CodeInternalServer},
		{"WrappedError", fmt.Errorf("wrapped: %w", ErrDuplicateClaim), CodeDuplicateClaim},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			code := ErrorCode(tc.err)
			if code != tc.expected {
				t.Errorf("ErrorCode(%v) = %d, want %d", tc.err, code, tc.expected)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	testCases := []struct {
		err      error
		expected Category
	}{
		{NewValidationError("amount", "must be positive"), CategoryValidation},
		{ErrInvalidAmount, CategoryValidation},
		{ErrUnitAlreadyClaimed, CategoryConflict},
		{NewInvalidTransitionError("reservation", "CANCELLED", "ACTIVE", nil), CategoryConflict},
		{ErrDepositNotFound, CategoryNotFound},
		{ErrForbidden, CategoryForbidden},
		{ErrConcurrentUpdate, CategoryConcurrency},
		{&RetryExhaustedError{Operation: "op", Attempts: 3, Err: ErrConcurrentUpdate}, CategoryConcurrency},
		{ErrCodeGeneration, CategoryFatal},
		{errors.New("boom"), CategoryFatal},
	}

	for _, tc := range testCases {
		if got := Classify(tc.err); got != tc.expected {
			t.Errorf("Classify(%v) = %s, want %s", tc.err, got, tc.expected)
		}
	}
}

func TestInvalidTransitionError(t *testing.T) {
	err := NewInvalidTransitionError("reservation", "MISSED", "YOUR_TURN", []string{"CANCELLED"})

	expected := "invalid status transition: reservation cannot move from MISSED to YOUR_TURN (allowed: CANCELLED)"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}
	if !errors.Is(err, ErrInvalidTransition) {
		t.Error("InvalidTransitionError should match ErrInvalidTransition")
	}

	terminal := NewInvalidTransitionError("booking", "EXPIRED", "CONFIRMED", nil)
	if terminal.Error() != "invalid status transition: booking cannot move from EXPIRED to CONFIRMED (allowed: none)" {
		t.Errorf("unexpected message for terminal state: %s", terminal.Error())
	}

	fields := err.LogFields()
	if fields["entity"] != "reservation" || fields["error_code"] != CodeInvalidTransition {
		t.Errorf("unexpected log fields: %v", fields)
	}
}

func TestRetryExhaustedError(t *testing.T) {
	err := &RetryExhaustedError{Operation: "booking.create", Attempts: 3, Err: ErrConcurrentUpdate}

	if !errors.Is(err, ErrRetryLater) {
		t.Error("RetryExhaustedError should match ErrRetryLater")
	}
	if !errors.Is(err, ErrConcurrentUpdate) {
		t.Error("RetryExhaustedError should unwrap to the last conflict")
	}
	if !IsRetryable(err) {
		t.Error("the wrapped conflict stays visible to errors.Is")
	}
}

func TestClaimConflictError(t *testing.T) {
	err := NewClaimConflictError("unit-1", "booking", ErrUnitAlreadyClaimed)

	if err.Error() != "booking rejected for unit unit-1: unit is already claimed by someone else" {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if !IsConflictError(err) {
		t.Error("ClaimConflictError should be classified as a conflict")
	}
	if fields := err.LogFields(); fields["unit_id"] != "unit-1" {
		t.Errorf("unexpected log fields: %v", fields)
	}
}
