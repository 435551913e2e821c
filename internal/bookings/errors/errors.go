package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	// ErrStatusConflict means a guarded transition matched no document:
	// the booking exists but is no longer in the expected status. The
	// caller lost a race or is replaying a finished operation.
	ErrStatusConflict = errors.New("booking is not in the expected status")
)
