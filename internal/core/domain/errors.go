package domain

import "errors"

var (
	// ErrDegenerateInput is returned when start and end coincide or the
	// curvature is outside (0, π).
	ErrDegenerateInput = errors.New("degenerate input")

	// ErrInvalidParameter is returned for a non-positive resolution or an
	// out-of-range coordinate.
	ErrInvalidParameter = errors.New("invalid parameter")
)
