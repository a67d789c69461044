package ical

import "errors"

// Sentinel kinds for calendar feed errors.
var (
	ErrEncode = errors.New("encode calendar failed")
	ErrDecode = errors.New("decode calendar failed")
)
