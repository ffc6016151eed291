package usecase

import "errors"

// Error classes returned by every service method. Callers match them with
// errors.Is; the wrapped message carries the detail.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("not authorized")
	ErrInvalidState = errors.New("invalid state")
)
