package mcp

import (
	"github.com/rpggio/groupbite/internal/domain/candidate"
	"github.com/rpggio/groupbite/internal/domain/session"
)

// Every params struct carries an optional member_id. It is only honored
// when the transport did not authenticate the caller.

type CreateGroupParams struct {
	MemberID    string  `json:"member_id,omitempty" jsonschema:"acting member (ignored when authenticated)"`
	Name        string  `json:"name" jsonschema:"group display name"`
	Description *string `json:"description,omitempty" jsonschema:"optional group description"`
}

type GetGroupParams struct {
	MemberID string `json:"member_id,omitempty" jsonschema:"acting member (ignored when authenticated)"`
	GroupID  string `json:"group_id" jsonschema:"group id"`
}

type JoinGroupParams struct {
	MemberID   string `json:"member_id,omitempty" jsonschema:"acting member (ignored when authenticated)"`
	InviteCode string `json:"invite_code" jsonschema:"8 character invite code, case-insensitive"`
}

type LeaveGroupParams struct {
	MemberID string `json:"member_id,omitempty" jsonschema:"acting member (ignored when authenticated)"`
	GroupID  string `json:"group_id" jsonschema:"group id"`
}

type ListGroupsParams struct {
	MemberID string `json:"member_id,omitempty" jsonschema:"acting member (ignored when authenticated)"`
}

type FiltersParams struct {
	Radius     float64  `json:"radius,omitempty" jsonschema:"search radius in meters, default 5000"`
	PriceLevel int      `json:"price_level,omitempty" jsonschema:"exact price tier 1-4, 0 for any"`
	Types      []string `json:"types,omitempty" jsonschema:"category tags, default [restaurant]"`
	Keyword    string   `json:"keyword,omitempty" jsonschema:"free-text search keyword"`
}

type CreateSessionParams struct {
	MemberID string         `json:"member_id,omitempty" jsonschema:"acting member (ignored when authenticated)"`
	GroupID  string         `json:"group_id" jsonschema:"group to start voting in"`
	Filters  *FiltersParams `json:"filters,omitempty" jsonschema:"candidate search filters"`
	Lat      *float64       `json:"lat,omitempty" jsonschema:"search origin latitude"`
	Lng      *float64       `json:"lng,omitempty" jsonschema:"search origin longitude"`
}

type GetActiveSessionParams struct {
	MemberID string `json:"member_id,omitempty" jsonschema:"acting member (ignored when authenticated)"`
	GroupID  string `json:"group_id" jsonschema:"group id"`
}

type GetSessionParams struct {
	MemberID  string `json:"member_id,omitempty" jsonschema:"acting member (ignored when authenticated)"`
	SessionID string `json:"session_id" jsonschema:"session id"`
}

type ListSessionsParams struct {
	MemberID string `json:"member_id,omitempty" jsonschema:"acting member (ignored when authenticated)"`
	GroupID  string `json:"group_id" jsonschema:"group id"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum sessions to return, default 20"`
}

type RecordVoteParams struct {
	MemberID    string `json:"member_id,omitempty" jsonschema:"acting member (ignored when authenticated)"`
	SessionID   string `json:"session_id,omitempty" jsonschema:"session id; omit to use the group's active session"`
	GroupID     string `json:"group_id,omitempty" jsonschema:"group id, used when session_id is omitted"`
	CandidateID string `json:"candidate_id" jsonschema:"candidate being voted on"`
	Value       string `json:"value" jsonschema:"approve or reject (like/dislike accepted)"`
}

type ConcludeSessionParams struct {
	MemberID  string `json:"member_id,omitempty" jsonschema:"acting member (ignored when authenticated)"`
	SessionID string `json:"session_id" jsonschema:"session id"`
}

type GetMatchesParams struct {
	MemberID  string `json:"member_id,omitempty" jsonschema:"acting member (ignored when authenticated)"`
	SessionID string `json:"session_id" jsonschema:"session id"`
}

type RecordSwipeParams struct {
	MemberID    string  `json:"member_id,omitempty" jsonschema:"acting member (ignored when authenticated)"`
	GroupID     string  `json:"group_id" jsonschema:"group id"`
	SessionID   *string `json:"session_id,omitempty" jsonschema:"optional session the swipe belongs to"`
	CandidateID string  `json:"candidate_id" jsonschema:"candidate being swiped"`
	Value       string  `json:"value" jsonschema:"approve or reject (like/dislike accepted)"`
}

type GetGroupMatchesParams struct {
	MemberID  string  `json:"member_id,omitempty" jsonschema:"acting member (ignored when authenticated)"`
	GroupID   string  `json:"group_id" jsonschema:"group id"`
	SessionID *string `json:"session_id,omitempty" jsonschema:"restrict to swipes of one session"`
}

// SessionResponse is a session plus its derived state.
type SessionResponse struct {
	*session.Session
	Status  session.Status        `json:"status"`
	Matches []candidate.Candidate `json:"matches"`
}

type MatchesResponse struct {
	SessionID string                `json:"session_id,omitempty"`
	GroupID   string                `json:"group_id,omitempty"`
	Matches   []candidate.Candidate `json:"matches"`
}

type LeaveGroupResponse struct {
	GroupID string `json:"group_id"`
	Left    bool   `json:"left"`
}
