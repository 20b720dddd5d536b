package candidate

import "context"

// Source produces an ordered, deduplicated and bounded candidate list.
// A nil origin means the source's configured default location.
type Source interface {
	FetchCandidates(ctx context.Context, filters Filters, origin *Coordinate) ([]Candidate, error)
}
