package pgsh

import "errors"

// Error taxonomy returned by JobTable operations and translated by the
// builtin dispatcher into the diagnostic text a user sees.
var (
	ErrNotFound             = errors.New("no such job")
	ErrAlreadyInTargetState = errors.New("job already in target state")
	ErrForegroundBusy       = errors.New("job already in foreground")
	ErrInvalidArgument      = errors.New("invalid argument")
)
