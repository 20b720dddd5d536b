package mocks

import (
	"context"
	"time"

	"github.com/rpggio/groupbite/internal/domain/candidate"
	"github.com/rpggio/groupbite/internal/domain/group"
	"github.com/rpggio/groupbite/internal/domain/session"
	"github.com/rpggio/groupbite/internal/domain/vote"
	"github.com/stretchr/testify/mock"
)

// GroupRepository is a mock for group.GroupRepository.
type GroupRepository struct {
	mock.Mock
}

func (m *GroupRepository) Create(ctx context.Context, g *group.Group) error {
	args := m.Called(ctx, g)
	return args.Error(0)
}

func (m *GroupRepository) Get(ctx context.Context, id string) (*group.Group, error) {
	args := m.Called(ctx, id)
	if g, ok := args.Get(0).(*group.Group); ok {
		return g, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *GroupRepository) GetByInviteCode(ctx context.Context, code string) (*group.Group, error) {
	args := m.Called(ctx, code)
	if g, ok := args.Get(0).(*group.Group); ok {
		return g, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *GroupRepository) ListForMember(ctx context.Context, memberID string) ([]group.GroupSummary, error) {
	args := m.Called(ctx, memberID)
	if list, ok := args.Get(0).([]group.GroupSummary); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *GroupRepository) AddMember(ctx context.Context, groupID, memberID string) error {
	args := m.Called(ctx, groupID, memberID)
	return args.Error(0)
}

func (m *GroupRepository) RemoveMember(ctx context.Context, groupID, memberID string) (int, error) {
	args := m.Called(ctx, groupID, memberID)
	return args.Int(0), args.Error(1)
}

func (m *GroupRepository) SetActive(ctx context.Context, groupID string, active bool) error {
	args := m.Called(ctx, groupID, active)
	return args.Error(0)
}

func (m *GroupRepository) ClearCurrentSession(ctx context.Context, groupID, sessionID string) error {
	args := m.Called(ctx, groupID, sessionID)
	return args.Error(0)
}

// Groups is a mock for session.Groups.
type Groups struct {
	mock.Mock
}

func (m *Groups) Get(ctx context.Context, groupID string) (*group.Group, error) {
	args := m.Called(ctx, groupID)
	if g, ok := args.Get(0).(*group.Group); ok {
		return g, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Groups) ClearCurrentSession(ctx context.Context, groupID, sessionID string) error {
	args := m.Called(ctx, groupID, sessionID)
	return args.Error(0)
}

// SessionRepository is a mock for session.SessionRepository.
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) Get(ctx context.Context, id string) (*session.Session, error) {
	args := m.Called(ctx, id)
	if sess, ok := args.Get(0).(*session.Session); ok {
		return sess, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) GetActive(ctx context.Context, groupID string) (*session.Session, error) {
	args := m.Called(ctx, groupID)
	if sess, ok := args.Get(0).(*session.Session); ok {
		return sess, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) Update(ctx context.Context, sess *session.Session, expectedVersion int64) error {
	args := m.Called(ctx, sess, expectedVersion)
	return args.Error(0)
}

func (m *SessionRepository) Supersede(ctx context.Context, sess *session.Session, at time.Time) ([]string, error) {
	args := m.Called(ctx, sess, at)
	if ids, ok := args.Get(0).([]string); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) ListByGroup(ctx context.Context, groupID string, limit int) ([]session.SessionInfo, error) {
	args := m.Called(ctx, groupID, limit)
	if list, ok := args.Get(0).([]session.SessionInfo); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// VoteStore is a mock for session.VoteStore.
type VoteStore struct {
	mock.Mock
}

func (m *VoteStore) Open(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *VoteStore) Upsert(ctx context.Context, sessionID, memberID, candidateID string, value vote.Value) error {
	args := m.Called(ctx, sessionID, memberID, candidateID, value)
	return args.Error(0)
}

func (m *VoteStore) Table(ctx context.Context, sessionID string) (vote.Table, error) {
	args := m.Called(ctx, sessionID)
	if t, ok := args.Get(0).(vote.Table); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *VoteStore) Seal(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// CandidateSource is a mock for candidate.Source.
type CandidateSource struct {
	mock.Mock
}

func (m *CandidateSource) FetchCandidates(ctx context.Context, filters candidate.Filters, origin *candidate.Coordinate) ([]candidate.Candidate, error) {
	args := m.Called(ctx, filters, origin)
	if list, ok := args.Get(0).([]candidate.Candidate); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// SwipeRepository is a mock for swipe.SwipeRepository.
type SwipeRepository struct {
	mock.Mock
}

func (m *SwipeRepository) Append(ctx context.Context, v *vote.Vote) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *SwipeRepository) ListByGroup(ctx context.Context, groupID string, sessionID *string) ([]vote.Vote, error) {
	args := m.Called(ctx, groupID, sessionID)
	if list, ok := args.Get(0).([]vote.Vote); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// CandidateLookup is a mock for swipe.CandidateLookup.
type CandidateLookup struct {
	mock.Mock
}

func (m *CandidateLookup) SessionCandidates(ctx context.Context, sessionID string) ([]candidate.Candidate, error) {
	args := m.Called(ctx, sessionID)
	if list, ok := args.Get(0).([]candidate.Candidate); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// Publisher is a mock for session.Publisher.
type Publisher struct {
	mock.Mock
}

func (m *Publisher) Publish(ev session.Event) {
	m.Called(ev)
}
