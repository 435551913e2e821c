package errors

import "errors"

var (
	ErrNotFound = errors.New("parking area not found")

	// ErrCounterConflict is returned when an occupancy increment would
	// push the counter outside [0, capacity].
	ErrCounterConflict = errors.New("occupancy counter out of range")
)
