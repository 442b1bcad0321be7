package series

import "errors"

var (
	// ErrNoObservations means nothing valid remained after filtering.
	ErrNoObservations = errors.New("series: no valid observations")

	// ErrInsufficientHistory means the aligned history cannot cover the
	// trailing level window without holes.
	ErrInsufficientHistory = errors.New("series: insufficient aligned history")
)
