package search

import (
	"errors"
	"fmt"
)

// Sentinel errors for reverse search outcomes.
var (
	// ErrConnection is returned when the point index cannot hand out a connection.
	ErrConnection = errors.New("point index connection failed")

	// ErrNotFound is returned when no place was found for the query point.
	ErrNotFound = errors.New("no place found")

	// ErrNoMatches is returned when a nearest match is requested from an empty result set.
	ErrNoMatches = errors.New("no matches to select from")

	// ErrMissingDistance is returned when a match carries no distance to select on.
	ErrMissingDistance = errors.New("match has no distance")
)

// SearchExhaustedError reports that the search box grew to its bound without a match.
type SearchExhaustedError struct {
	MaxDelta   float64
	Iterations int
}

func (e *SearchExhaustedError) Error() string {
	return fmt.Sprintf("no place found within %g degrees after %d iterations", e.MaxDelta, e.Iterations)
}

func (e *SearchExhaustedError) Is(target error) bool {
	return target == ErrNotFound
}
