package service

import "errors"

// ErrCabinetNotFound rejects a whole batch: a payload for an unknown device
// is entirely untrustworthy.
var ErrCabinetNotFound = errors.New("cabinet not found")

// ErrForbidden is returned when an actor touches another tenant's resources
var ErrForbidden = errors.New("forbidden")

// ValidationError marks caller-provided input as malformed. Always
// recoverable; handlers map it to a 400-class response.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
