package errors

import "errors"

var ErrNotFound = errors.New("slot lock not found")
