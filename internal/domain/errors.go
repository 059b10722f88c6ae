package domain

import (
	"errors"
	"fmt"
)

// Error categories. Every error the booking engine reports to callers wraps
// exactly one of these.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation failed")
	ErrTransient    = errors.New("temporary storage failure")
)

var (
	ErrBookingNotFound        = newError(ErrNotFound, "booking not found")
	ErrFlightInstanceNotFound = newError(ErrNotFound, "flight instance not found")
	ErrSeatsNotFound          = newError(ErrNotFound, "one or more seats could not be found for this flight")
	ErrTooLateToReschedule    = newError(ErrInvalidState, "cannot reschedule a flight that has already departed")
)

// categorizedError carries a user-facing message and the category it belongs to.
type categorizedError struct {
	kind error
	msg  string
}

func newError(kind error, msg string) error {
	return &categorizedError{kind: kind, msg: msg}
}

func (e *categorizedError) Error() string { return e.msg }

func (e *categorizedError) Unwrap() error { return e.kind }

// SeatConflictError reports the first requested seat that is not available.
type SeatConflictError struct {
	FlightInstanceID int64
	Seat             string
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seat %s is no longer available", e.Seat)
}

func (e *SeatConflictError) Unwrap() error {
	return ErrConflict
}

func InvalidState(format string, args ...any) error {
	return newError(ErrInvalidState, fmt.Sprintf(format, args...))
}

func Validation(format string, args ...any) error {
	return newError(ErrValidation, fmt.Sprintf(format, args...))
}

// Transient marks a storage error as safe for the caller to retry.
func Transient(err error) error {
	if err == nil || errors.Is(err, ErrTransient) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}
