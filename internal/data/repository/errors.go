package repository

import "errors"

var (
	// ErrNotFound is returned by conditional writes whose target row is gone.
	ErrNotFound = errors.New("record not found")

	// ErrOverlap is returned when an insert would overlap an active
	// reservation for the same facility and date. Nothing is written.
	ErrOverlap = errors.New("time slot already booked")

	// ErrStaleVersion is returned when a conditional update lost a race
	// against another writer of the same reservation.
	ErrStaleVersion = errors.New("reservation was modified concurrently")
)
