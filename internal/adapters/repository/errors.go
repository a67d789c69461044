package repository

import "errors"

// Sentinel kinds for event store errors.
var (
	ErrNotFound     = errors.New("event not found")
	ErrInvalidEvent = errors.New("invalid event")
	ErrDraftID      = errors.New("draft ids cannot be stored")
)
