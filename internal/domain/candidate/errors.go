package candidate

import "errors"

var (
	// ErrUpstreamUnavailable indicates the places provider could not serve the search.
	ErrUpstreamUnavailable = errors.New("candidate source unavailable")
	// ErrInvalidFilters indicates out-of-range search filters.
	ErrInvalidFilters = errors.New("invalid candidate filters")
)
