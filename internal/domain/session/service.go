package session

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

const (
	// DefaultListLimit bounds ListSessions when no limit is given.
	DefaultListLimit = 20

	maxConcludeAttempts = 3
)

// Service manages the session lifecycle and vote recording.
type Service struct {
	sessions  SessionRepository
	votes     VoteStore
	groups    Groups
	source    candidate.Source
	publisher Publisher
	observer  Observer
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithPublisher sends change events to p.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithObserver reports activity counters to o.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new session service.
func NewService(
	sessions SessionRepository,
	votes VoteStore,
	groups Groups,
	source candidate.Source,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Service{
		sessions: sessions,
		votes:    votes,
		groups:   groups,
		source:   source,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRequest describes a session creation request.
type CreateRequest struct {
	GroupID   string
	CreatedBy string
	Filters   candidate.Filters
	Origin    *candidate.Coordinate
}

// RecordVoteRequest describes one vote. SessionID wins over GroupID; with
// only GroupID the group's active session is used.
type RecordVoteRequest struct {
	SessionID   string
	GroupID     string
	MemberID    string
	CandidateID string
	Value       vote.Value
}

// CreateSession fetches candidates and starts a new active session for the
// group, superseding any session still active.
func (s *Service) CreateSession(ctx context.Context, req CreateRequest) (*Session, error) {
	if req.GroupID == "" || req.CreatedBy == "" {
		return nil, ErrInvalidInput
	}

	filters := req.Filters.Normalize()
	if err := filters.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if _, err := s.groups.Get(ctx, req.GroupID); err != nil {
		return nil, err
	}

	candidates, err := s.source.FetchCandidates(ctx, filters, req.Origin)
	if err != nil {
		return nil, fmt.Errorf("fetching candidates: %w", err)
	}
	if len(candidates) == 0 {
		return nil, ErrEmptyCandidateSet
	}

	now := s.now()
	sess := &Session{
		ID:         uuid.NewString(),
		GroupID:    req.GroupID,
		CreatedBy:  req.CreatedBy,
		CreatedAt:  now,
		Active:     true,
		Candidates: candidates,
		Filters:    filters,
		Votes:      vote.Table{},
	}

	// Open before the session is stored so it is never active with its
	// votes refused.
	if err := s.votes.Open(ctx, sess.ID); err != nil {
		return nil, fmt.Errorf("opening votes: %w", err)
	}
	superseded, err := s.sessions.Supersede(ctx, sess, now)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			s.conflict("create")
			return nil, ErrConflict
		}
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, group.ErrGroupNotFound
		}
		return nil, fmt.Errorf("creating session: %w", err)
	}
	for _, id := range superseded {
		if err := s.votes.Seal(ctx, id); err != nil {
			// RecordVote refuses inactive sessions before the vote store.
			s.logger.Warn("sealing superseded votes failed", "session_id", id, "error", err)
		}
	}

	s.logger.Info("session created",
		"session_id", sess.ID,
		"group_id", sess.GroupID,
		"candidates", len(candidates),
		"superseded", len(superseded),
	)
	if s.observer != nil {
		s.observer.SessionCreated(len(candidates))
	}
	for _, id := range superseded {
		s.publish(Event{Type: EventSuperseded, SessionID: id, GroupID: req.GroupID, Matches: []candidate.Candidate{}})
	}
	s.publishSession(EventCreated, sess)
	return sess, nil
}

// LoadActiveSession returns the group's active session with its votes.
func (s *Service) LoadActiveSession(ctx context.Context, groupID string) (*Session, error) {
	if groupID == "" {
		return nil, ErrInvalidInput
	}
	sess, err := s.sessions.GetActive(ctx, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoActiveSession
		}
		return nil, fmt.Errorf("loading active session: %w", err)
	}
	if err := s.attachVotes(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// GetSession returns any session, active or concluded, with its votes.
func (s *Service) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, ErrInvalidInput
	}
	return s.load(ctx, sessionID)
}

// ListSessions returns the group's sessions, newest first.
func (s *Service) ListSessions(ctx context.Context, groupID string, limit int) ([]SessionInfo, error) {
	if groupID == "" {
		return nil, ErrInvalidInput
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	infos, err := s.sessions.ListByGroup(ctx, groupID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return infos, nil
}

// RecordVote writes one member's vote on one candidate, overwriting any
// earlier vote in the same cell.
func (s *Service) RecordVote(ctx context.Context, req RecordVoteRequest) (*Session, error) {
	var (
		sess *Session
		err  error
	)
	switch {
	case req.SessionID != "":
		sess, err = s.load(ctx, req.SessionID)
	case req.GroupID != "":
		sess, err = s.LoadActiveSession(ctx, req.GroupID)
		if errors.Is(err, ErrNoActiveSession) {
			err = ErrSessionNotFound
		}
	default:
		return nil, ErrInvalidInput
	}
	if err != nil {
		return nil, err
	}

	if !sess.Active {
		return nil, ErrSessionInactive
	}
	if !candidate.Contains(sess.Candidates, req.CandidateID) {
		return nil, ErrInvalidCandidate
	}
	if req.MemberID == "" || !req.Value.Valid() {
		return nil, ErrInvalidInput
	}

	if err := s.votes.Upsert(ctx, sess.ID, req.MemberID, req.CandidateID, req.Value); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrSessionInactive
		}
		return nil, fmt.Errorf("recording vote: %w", err)
	}
	if err := s.attachVotes(ctx, sess); err != nil {
		return nil, err
	}

	s.logger.Debug("vote recorded",
		"session_id", sess.ID,
		"member_id", req.MemberID,
		"candidate_id", req.CandidateID,
		"value", req.Value,
	)
	if s.observer != nil {
		s.observer.VoteRecorded(req.Value)
	}
	s.publishSession(EventVote, sess)
	return sess, nil
}

// ConcludeSession ends voting on a session. Concluding a session that is
// already inactive returns it unchanged.
func (s *Service) ConcludeSession(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, ErrInvalidInput
	}

	for attempt := 1; attempt <= maxConcludeAttempts; attempt++ {
		sess, err := s.load(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if !sess.Active {
			return sess, nil
		}

		expected := sess.Version
		now := s.now()
		sess.Active = false
		sess.ConcludedAt = &now

		err = s.sessions.Update(ctx, sess, expected)
		if errors.Is(err, repository.ErrConflict) {
			s.conflict("conclude")
			s.logger.Debug("conclude lost race, retrying", "session_id", sessionID, "attempt", attempt)
			continue
		}
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrSessionNotFound
			}
			return nil, fmt.Errorf("concluding session: %w", err)
		}

		if err := s.votes.Seal(ctx, sess.ID); err != nil {
			return nil, fmt.Errorf("sealing votes: %w", err)
		}
		if err := s.groups.ClearCurrentSession(ctx, sess.GroupID, sess.ID); err != nil {
			return nil, fmt.Errorf("updating group: %w", err)
		}

		s.logger.Info("session concluded", "session_id", sess.ID, "group_id", sess.GroupID)
		if s.observer != nil {
			s.observer.SessionConcluded()
		}
		s.publishSession(EventConcluded, sess)
		return sess, nil
	}
	return nil, ErrConflict
}

// Matches returns the candidates every voter of the session approved.
func (s *Service) Matches(ctx context.Context, sessionID string) ([]candidate.Candidate, error) {
	if sessionID == "" {
		return nil, ErrInvalidInput
	}
	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return match.Resolve(snapshot(sess)), nil
}

func (s *Service) load(ctx context.Context, sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if err := s.attachVotes(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Service) attachVotes(ctx context.Context, sess *Session) error {
	table, err := s.votes.Table(ctx, sess.ID)
	if err != nil {
		return fmt.Errorf("loading votes: %w", err)
	}
	if table == nil {
		table = vote.Table{}
	}
	sess.Votes = table
	return nil
}

func (s *Service) conflict(op string) {
	if s.observer != nil {
		s.observer.WriteConflict(op)
	}
}

func (s *Service) publishSession(t EventType, sess *Session) {
	if s.publisher == nil {
		return
	}
	s.publish(Event{
		Type:      t,
		SessionID: sess.ID,
		GroupID:   sess.GroupID,
		Session:   sess,
		Matches:   match.Resolve(snapshot(sess)),
	})
}

func (s *Service) publish(ev Event) {
	if s.publisher == nil {
		return
	}
	ev.At = s.now()
	s.publisher.Publish(ev)
}

func snapshot(sess *Session) match.SessionSnapshot {
	return match.SessionSnapshot{Candidates: sess.Candidates, Votes: sess.Votes}
}
