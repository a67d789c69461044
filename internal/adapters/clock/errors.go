package clock

import "errors"

// Sentinel kinds for clock errors.
var (
	ErrInvalidSpec     = errors.New("invalid tick schedule")
	ErrAlreadyRunning  = errors.New("clock already running")
	ErrShutdownTimeout = errors.New("clock shutdown timed out")
)
