package booking

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDentistNotFound     = errors.New("dentist not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrSlotNotFound means no slot matches the requested date and time.
	ErrSlotNotFound = errors.New("no availability slot matches the requested date and time")

	// ErrSlotUnavailable means the matched slot is already taken.
	ErrSlotUnavailable = errors.New("slot is no longer available")

	// ErrConcurrentBooking means another booker won the race for the slot
	// between our availability check and the reservation. The caller should
	// re-list availability and retry.
	ErrConcurrentBooking = errors.New("slot was just taken by another booking, please pick another")
)

// ValidationError reports missing or malformed booking input, surfaced to
// the caller verbatim.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid booking request: %s", strings.Join(e.Fields, ", "))
}
