package pipeline

import "fmt"

// FetchError marks one indicator whose provider fetch failed. The run
// continues; the indicator just drops out of the evaluable set.
type FetchError struct {
	IndicatorID string
	Err         error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("pipeline: fetching %s: %v", e.IndicatorID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
