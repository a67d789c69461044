package service

import "errors"

// Sentinel kinds for state container errors.
var (
	ErrInvalidRole    = errors.New("invalid role")
	ErrInvalidProfile = errors.New("invalid profile")
	ErrInvalidHour    = errors.New("hour out of range")
	ErrUnknownCity    = errors.New("unknown city")
	ErrInvalidTime    = errors.New("invalid time text")
	ErrInvalidModal   = errors.New("invalid modal")
	ErrInvalidType    = errors.New("invalid event type")
	ErrNoDraft        = errors.New("no event is being edited")
	ErrDraftMismatch  = errors.New("event does not match the one being edited")
)
