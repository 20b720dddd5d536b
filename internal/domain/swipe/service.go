// Package swipe records standalone swipes that are not bound to a session's
// vote table and computes group-wide matches from them.
package swipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/groupbite/internal/domain/candidate"
	"github.com/rpggio/groupbite/internal/domain/group"
	"github.com/rpggio/groupbite/internal/domain/match"
	"github.com/rpggio/groupbite/internal/domain/vote"
	"github.com/rpggio/groupbite/internal/repository"
)

// Service handles swipe operations.
type Service struct {
	swipes  SwipeRepository
	lookup  CandidateLookup
	logger  *slog.Logger
	nowFunc func() time.Time
}

// NewService creates a new swipe service.
func NewService(swipes SwipeRepository, lookup CandidateLookup, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		swipes:  swipes,
		lookup:  lookup,
		logger:  logger,
		nowFunc: func() time.Time { return time.Now().UTC() },
	}
}

// RecordRequest describes one swipe.
type RecordRequest struct {
	MemberID    string
	GroupID     string
	SessionID   *string
	CandidateID string
	Value       vote.Value
}

// Record appends a swipe. When a session is referenced the candidate must
// belong to its frozen list.
func (s *Service) Record(ctx context.Context, req RecordRequest) (*vote.Vote, error) {
	if req.MemberID == "" || req.GroupID == "" || req.CandidateID == "" || !req.Value.Valid() {
		return nil, ErrInvalidInput
	}

	if req.SessionID != nil {
		candidates, err := s.sessionCandidates(ctx, *req.SessionID)
		if err != nil {
			return nil, err
		}
		if !candidate.Contains(candidates, req.CandidateID) {
			return nil, ErrInvalidCandidate
		}
	}

	v := &vote.Vote{
		ID:          uuid.NewString(),
		MemberID:    req.MemberID,
		GroupID:     req.GroupID,
		SessionID:   req.SessionID,
		CandidateID: req.CandidateID,
		Value:       req.Value,
		CreatedAt:   s.nowFunc(),
	}
	if err := s.swipes.Append(ctx, v); err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, group.ErrGroupNotFound
		}
		return nil, fmt.Errorf("recording swipe: %w", err)
	}

	s.logger.Debug("swipe recorded", "group_id", v.GroupID, "member_id", v.MemberID, "candidate_id", v.CandidateID)
	return v, nil
}

// GroupMatches returns the candidates every swiping member of the group
// approved. With a session id the session's candidate list supplies order
// and details; otherwise candidates carry only their id.
func (s *Service) GroupMatches(ctx context.Context, groupID string, sessionID *string) ([]candidate.Candidate, error) {
	if groupID == "" {
		return nil, ErrInvalidInput
	}

	var candidates []candidate.Candidate
	if sessionID != nil {
		var err error
		candidates, err = s.sessionCandidates(ctx, *sessionID)
		if err != nil {
			return nil, err
		}
	}

	votes, err := s.swipes.ListByGroup(ctx, groupID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing swipes: %w", err)
	}
	return match.Resolve(match.RawVoteStream{Candidates: candidates, Votes: votes}), nil
}

func (s *Service) sessionCandidates(ctx context.Context, sessionID string) ([]candidate.Candidate, error) {
	candidates, err := s.lookup.SessionCandidates(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("loading session candidates: %w", err)
	}
	return candidates, nil
}
