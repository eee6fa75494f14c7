package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRuleForDate no reservation rule or week definition governs the date
	ErrNoRuleForDate = errors.New("no rule for date")

	// ErrAmbiguousRule two rules of the same layer share the same effective date
	ErrAmbiguousRule = errors.New("ambiguous rule")

	// ErrInvalidTimeRange zero-width or inverted time range
	ErrInvalidTimeRange = errors.New("invalid time range")

	// ErrSlotClosed the slot is closed or outside the form validity window
	ErrSlotClosed = errors.New("slot closed")

	// ErrCapacityExceeded requested seats exceed remaining capacity
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrBusinessRule a booking policy rule rejected the request
	ErrBusinessRule = errors.New("business rule violation")

	// ErrInvariantViolation ledger state would become inconsistent, indicates a bug
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrConflictingAppointments a schedule change would orphan slots holding appointments
	ErrConflictingAppointments = errors.New("schedule change conflicts with existing appointments")
)

// BusinessRuleReason sub-reason of ErrBusinessRule
type BusinessRuleReason string

const (
	ReasonTooManyAppointments   BusinessRuleReason = "too_many_appointments"
	ReasonTooSoonAfterPrevious  BusinessRuleReason = "too_soon_after_previous"
	ReasonTooManySeatsRequested BusinessRuleReason = "too_many_seats_requested"
	ReasonTooLateToBook         BusinessRuleReason = "too_late_to_book"
)

// BusinessRuleError ErrBusinessRule with its reason
type BusinessRuleError struct {
	Reason BusinessRuleReason
	Detail string
}

func (e *BusinessRuleError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", ErrBusinessRule, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrBusinessRule, e.Reason, e.Detail)
}

// Unwrap allows errors.Is(err, ErrBusinessRule)
func (e *BusinessRuleError) Unwrap() error {
	return ErrBusinessRule
}

// NewBusinessRuleError builds a BusinessRuleError
func NewBusinessRuleError(reason BusinessRuleReason, format string, v ...interface{}) error {
	return &BusinessRuleError{Reason: reason, Detail: fmt.Sprintf(format, v...)}
}

// CapacityError ErrCapacityExceeded with the remaining count so callers can offer alternatives
type CapacityError struct {
	SlotID    int64
	Requested int
	Remaining int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s: slot id=%d requested=%d remaining=%d", ErrCapacityExceeded, e.SlotID, e.Requested, e.Remaining)
}

// Unwrap allows errors.Is(err, ErrCapacityExceeded)
func (e *CapacityError) Unwrap() error {
	return ErrCapacityExceeded
}

// ConflictError ErrConflictingAppointments with the slots that would be affected
type ConflictError struct {
	SlotIDs []int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: slots %v", ErrConflictingAppointments, e.SlotIDs)
}

// Unwrap allows errors.Is(err, ErrConflictingAppointments)
func (e *ConflictError) Unwrap() error {
	return ErrConflictingAppointments
}
