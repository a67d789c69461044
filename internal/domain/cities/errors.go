package cities

import "errors"

// Sentinel kinds for city table errors.
var (
	ErrLoadTable = errors.New("load city table failed")
)
