package swipe

import (
	"context"

	"github.com/rpggio/groupbite/internal/domain/candidate"
	"github.com/rpggio/groupbite/internal/domain/vote"
)

// SwipeRepository provides append-only persistence for swipe records.
type SwipeRepository interface {
	Append(ctx context.Context, v *vote.Vote) error
	// ListByGroup returns the group's swipes in insertion order, limited to
	// one session when sessionID is non-nil.
	ListByGroup(ctx context.Context, groupID string, sessionID *string) ([]vote.Vote, error)
}

// CandidateLookup resolves the frozen candidate list of a session.
type CandidateLookup interface {
	SessionCandidates(ctx context.Context, sessionID string) ([]candidate.Candidate, error)
}
