package session

import (
	"time"

	"github.com/rpggio/groupbite/internal/domain/candidate"
	"github.com/rpggio/groupbite/internal/domain/vote"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusActive    Status = "active"
	StatusConcluded Status = "concluded"
)

// Session is one round of voting over a frozen candidate list.
type Session struct {
	ID          string                `json:"id"`
	GroupID     string                `json:"group_id"`
	CreatedBy   string                `json:"created_by"`
	CreatedAt   time.Time             `json:"created_at"`
	Active      bool                  `json:"active"`
	ConcludedAt *time.Time            `json:"concluded_at,omitempty"`
	Candidates  []candidate.Candidate `json:"candidates"`
	Filters     candidate.Filters     `json:"filters"`
	Votes       vote.Table            `json:"votes"`
	Version     int64                 `json:"version"`
}

// Status reports whether the session still accepts votes.
func (s *Session) Status() Status {
	if s.Active {
		return StatusActive
	}
	return StatusConcluded
}

// SessionInfo is the history view of a session.
type SessionInfo struct {
	ID             string     `json:"id"`
	GroupID        string     `json:"group_id"`
	CreatedBy      string     `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
	Active         bool       `json:"active"`
	ConcludedAt    *time.Time `json:"concluded_at,omitempty"`
	CandidateCount int        `json:"candidate_count"`
}

// EventType classifies a session change.
type EventType string

const (
	EventCreated    EventType = "created"
	EventVote       EventType = "vote"
	EventConcluded  EventType = "concluded"
	EventSuperseded EventType = "superseded"
)

// Event describes a change to a session, carrying the state after the change.
type Event struct {
	Type      EventType             `json:"type"`
	SessionID string                `json:"session_id"`
	GroupID   string                `json:"group_id"`
	Session   *Session              `json:"session,omitempty"`
	Matches   []candidate.Candidate `json:"matches"`
	At        time.Time             `json:"at"`
}
