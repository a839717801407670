package sign

import "errors"

// Sentinel kinds for dictionary errors.
var (
	ErrInvalidEntry = errors.New("invalid sign entry")
	ErrLoad         = errors.New("load dictionary failed")
)
