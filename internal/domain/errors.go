package domain

import (
	"errors"
	"fmt"
)

var (
	ErrFlightNotFound         = errors.New("flight not found")
	ErrInvalidFlight          = errors.New("invalid flight")
	ErrFlightDeparted         = errors.New("flight has already departed")
	ErrInvalidSeatCount       = errors.New("seat count must be positive")
	ErrCapacityExhausted      = errors.New("not enough seats available")
	ErrConcurrencyConflict    = errors.New("seat inventory changed concurrently, retry")
	ErrReleaseExceedsCapacity = errors.New("release exceeds flight capacity")

	ErrInvalidBooking      = errors.New("invalid booking request")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrBookingNotPending   = errors.New("booking is not pending")
	ErrBookingStateChanged = errors.New("booking status changed concurrently")

	ErrReminderNotFound     = errors.New("reminder not found")
	ErrInvalidReminder      = errors.New("invalid reminder request")
	ErrNoDeliverableChannel = errors.New("reminder has no deliverable channel")
)

// CapacityError reports an exhausted seat pool. Contended is set when the
// first read showed enough seats and a concurrent reservation took them.
type CapacityError struct {
	FlightID  int64
	Requested int
	Available int
	Contended bool
}

func (e *CapacityError) Error() string {
	if e.Contended {
		return fmt.Sprintf("not enough seats on flight %d: available %d, requested %d (taken by a concurrent booking)", e.FlightID, e.Available, e.Requested)
	}
	return fmt.Sprintf("not enough seats on flight %d: available %d, requested %d", e.FlightID, e.Available, e.Requested)
}

func (e *CapacityError) Unwrap() error {
	return ErrCapacityExhausted
}
