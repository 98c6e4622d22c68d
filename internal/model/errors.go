package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for the ticketing domain. Handlers map these onto
// HTTP statuses with errors.Is.
var (
	ErrEventNotFound  = errors.New("event not found")
	ErrTicketNotFound = errors.New("ticket not found")

	// ErrEventFull is returned when a bounded event has no capacity left.
	ErrEventFull = errors.New("event is full")

	// ErrAlreadyRegistered is returned when the same email or personal id
	// already holds a ticket for the event.
	ErrAlreadyRegistered = errors.New("already registered for this event")

	// ErrEventExternal signals that the event takes registrations on an
	// external site; callers turn it into a redirect, not a failure.
	ErrEventExternal = errors.New("event uses external registration")

	ErrInvalidStatus = errors.New("invalid ticket status")
)

// RegistrationClosedError carries the computed window status so clients
// can tell "not yet open" from "closed".
type RegistrationClosedError struct {
	Status RegistrationStatus
}

func (e *RegistrationClosedError) Error() string {
	return fmt.Sprintf("registration is not open (status: %s)", e.Status)
}

// ValidationError marks a request rejected before the transactional path.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NewValidationError builds a ValidationError from a format string.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
