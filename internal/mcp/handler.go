package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rpggio/groupbite/internal/domain/candidate"
	"github.com/rpggio/groupbite/internal/domain/group"
	"github.com/rpggio/groupbite/internal/domain/match"
	"github.com/rpggio/groupbite/internal/domain/session"
	"github.com/rpggio/groupbite/internal/domain/swipe"
	"github.com/rpggio/groupbite/internal/domain/vote"
)

// ErrUnknownMethod indicates Handle was called with an unsupported method.
var ErrUnknownMethod = errors.New("unknown method")

// DefaultMemberID is used when the caller is neither authenticated nor names a member.
const DefaultMemberID = "local"

// GroupService defines group operations needed by MCP.
type GroupService interface {
	Create(ctx context.Context, req group.CreateRequest) (*group.Group, error)
	Get(ctx context.Context, groupID string) (*group.Group, error)
	Join(ctx context.Context, inviteCode, memberID string) (*group.Group, error)
	Leave(ctx context.Context, groupID, memberID string) error
	ListForMember(ctx context.Context, memberID string) ([]group.GroupSummary, error)
}

// SessionService defines session operations needed by MCP.
type SessionService interface {
	CreateSession(ctx context.Context, req session.CreateRequest) (*session.Session, error)
	LoadActiveSession(ctx context.Context, groupID string) (*session.Session, error)
	GetSession(ctx context.Context, sessionID string) (*session.Session, error)
	ListSessions(ctx context.Context, groupID string, limit int) ([]session.SessionInfo, error)
	RecordVote(ctx context.Context, req session.RecordVoteRequest) (*session.Session, error)
	ConcludeSession(ctx context.Context, sessionID string) (*session.Session, error)
	Matches(ctx context.Context, sessionID string) ([]candidate.Candidate, error)
}

// SwipeService defines swipe log operations needed by MCP.
type SwipeService interface {
	Record(ctx context.Context, req swipe.RecordRequest) (*vote.Vote, error)
	GroupMatches(ctx context.Context, groupID string, sessionID *string) ([]candidate.Candidate, error)
}

// Handler dispatches commands to domain services.
type Handler struct {
	groups   GroupService
	sessions SessionService
	swipes   SwipeService
}

// NewHandler creates a new handler.
func NewHandler(groups GroupService, sessions SessionService, swipes SwipeService) *Handler {
	return &Handler{
		groups:   groups,
		sessions: sessions,
		swipes:   swipes,
	}
}

// Handle decodes params for method and runs it. A non-empty memberID is an
// authenticated identity and overrides any member_id in params.
func (h *Handler) Handle(ctx context.Context, memberID, method string, params json.RawMessage) (any, error) {
	switch method {
	case "create_group":
		return dispatch(ctx, h, memberID, params, (*Handler).createGroup)
	case "get_group":
		return dispatch(ctx, h, memberID, params, (*Handler).getGroup)
	case "join_group":
		return dispatch(ctx, h, memberID, params, (*Handler).joinGroup)
	case "leave_group":
		return dispatch(ctx, h, memberID, params, (*Handler).leaveGroup)
	case "list_groups":
		return dispatch(ctx, h, memberID, params, (*Handler).listGroups)
	case "create_session":
		return dispatch(ctx, h, memberID, params, (*Handler).createSession)
	case "get_active_session":
		return dispatch(ctx, h, memberID, params, (*Handler).getActiveSession)
	case "get_session":
		return dispatch(ctx, h, memberID, params, (*Handler).getSession)
	case "list_sessions":
		return dispatch(ctx, h, memberID, params, (*Handler).listSessions)
	case "record_vote":
		return dispatch(ctx, h, memberID, params, (*Handler).recordVote)
	case "conclude_session":
		return dispatch(ctx, h, memberID, params, (*Handler).concludeSession)
	case "get_matches":
		return dispatch(ctx, h, memberID, params, (*Handler).getMatches)
	case "record_swipe":
		return dispatch(ctx, h, memberID, params, (*Handler).recordSwipe)
	case "get_group_matches":
		return dispatch(ctx, h, memberID, params, (*Handler).getGroupMatches)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
}

type command[In any] func(h *Handler, ctx context.Context, memberID string, in In) (any, error)

func dispatch[In any](ctx context.Context, h *Handler, memberID string, params json.RawMessage, fn command[In]) (any, error) {
	var in In
	if err := decodeParams(params, &in); err != nil {
		return nil, &APIError{Code: "INVALID_INPUT", Message: fmt.Sprintf("invalid params: %v", err)}
	}
	result, err := fn(h, ctx, memberID, in)
	if err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

func (h *Handler) createGroup(ctx context.Context, memberID string, in CreateGroupParams) (any, error) {
	return h.groups.Create(ctx, group.CreateRequest{
		Name:        in.Name,
		Description: in.Description,
		CreatedBy:   actingMember(memberID, in.MemberID),
	})
}

func (h *Handler) getGroup(ctx context.Context, _ string, in GetGroupParams) (any, error) {
	return h.groups.Get(ctx, in.GroupID)
}

func (h *Handler) joinGroup(ctx context.Context, memberID string, in JoinGroupParams) (any, error) {
	return h.groups.Join(ctx, in.InviteCode, actingMember(memberID, in.MemberID))
}

func (h *Handler) leaveGroup(ctx context.Context, memberID string, in LeaveGroupParams) (any, error) {
	if err := h.groups.Leave(ctx, in.GroupID, actingMember(memberID, in.MemberID)); err != nil {
		return nil, err
	}
	return LeaveGroupResponse{GroupID: in.GroupID, Left: true}, nil
}

func (h *Handler) listGroups(ctx context.Context, memberID string, in ListGroupsParams) (any, error) {
	return h.groups.ListForMember(ctx, actingMember(memberID, in.MemberID))
}

func (h *Handler) createSession(ctx context.Context, memberID string, in CreateSessionParams) (any, error) {
	req := session.CreateRequest{
		GroupID:   in.GroupID,
		CreatedBy: actingMember(memberID, in.MemberID),
	}
	if in.Filters != nil {
		req.Filters = candidate.Filters{
			Radius:     in.Filters.Radius,
			PriceLevel: in.Filters.PriceLevel,
			Types:      in.Filters.Types,
			Keyword:    in.Filters.Keyword,
		}
	}
	if in.Lat != nil && in.Lng != nil {
		req.Origin = &candidate.Coordinate{Lat: *in.Lat, Lng: *in.Lng}
	}

	sess, err := h.sessions.CreateSession(ctx, req)
	if err != nil {
		return nil, err
	}
	return sessionResponse(sess), nil
}

func (h *Handler) getActiveSession(ctx context.Context, _ string, in GetActiveSessionParams) (any, error) {
	sess, err := h.sessions.LoadActiveSession(ctx, in.GroupID)
	if err != nil {
		return nil, err
	}
	return sessionResponse(sess), nil
}

func (h *Handler) getSession(ctx context.Context, _ string, in GetSessionParams) (any, error) {
	sess, err := h.sessions.GetSession(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	return sessionResponse(sess), nil
}

func (h *Handler) listSessions(ctx context.Context, _ string, in ListSessionsParams) (any, error) {
	return h.sessions.ListSessions(ctx, in.GroupID, in.Limit)
}

func (h *Handler) recordVote(ctx context.Context, memberID string, in RecordVoteParams) (any, error) {
	value, err := vote.ParseValue(in.Value)
	if err != nil {
		return nil, err
	}
	sess, err := h.sessions.RecordVote(ctx, session.RecordVoteRequest{
		SessionID:   in.SessionID,
		GroupID:     in.GroupID,
		MemberID:    actingMember(memberID, in.MemberID),
		CandidateID: in.CandidateID,
		Value:       value,
	})
	if err != nil {
		return nil, err
	}
	return sessionResponse(sess), nil
}

func (h *Handler) concludeSession(ctx context.Context, _ string, in ConcludeSessionParams) (any, error) {
	sess, err := h.sessions.ConcludeSession(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	return sessionResponse(sess), nil
}

func (h *Handler) getMatches(ctx context.Context, _ string, in GetMatchesParams) (any, error) {
	matches, err := h.sessions.Matches(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	return MatchesResponse{SessionID: in.SessionID, Matches: matches}, nil
}

func (h *Handler) recordSwipe(ctx context.Context, memberID string, in RecordSwipeParams) (any, error) {
	value, err := vote.ParseValue(in.Value)
	if err != nil {
		return nil, err
	}
	return h.swipes.Record(ctx, swipe.RecordRequest{
		MemberID:    actingMember(memberID, in.MemberID),
		GroupID:     in.GroupID,
		SessionID:   in.SessionID,
		CandidateID: in.CandidateID,
		Value:       value,
	})
}

func (h *Handler) getGroupMatches(ctx context.Context, _ string, in GetGroupMatchesParams) (any, error) {
	matches, err := h.swipes.GroupMatches(ctx, in.GroupID, in.SessionID)
	if err != nil {
		return nil, err
	}
	resp := MatchesResponse{GroupID: in.GroupID, Matches: matches}
	if in.SessionID != nil {
		resp.SessionID = *in.SessionID
	}
	return resp, nil
}

func sessionResponse(sess *session.Session) *SessionResponse {
	return &SessionResponse{
		Session: sess,
		Status:  sess.Status(),
		Matches: match.Resolve(match.SessionSnapshot{Candidates: sess.Candidates, Votes: sess.Votes}),
	}
}

func actingMember(authenticated, requested string) string {
	if authenticated != "" {
		return authenticated
	}
	if requested != "" {
		return requested
	}
	return DefaultMemberID
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	return json.Unmarshal(params, out)
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
