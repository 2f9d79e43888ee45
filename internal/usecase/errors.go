package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("player not found")
	ErrFetchFailure          = errors.New("fetch failure")
	ErrCreateFailure         = errors.New("create failure")
	ErrDeleteFailure         = errors.New("delete failure")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrBusy                  = errors.New("another action is in flight")
)
