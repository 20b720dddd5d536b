package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/groupbite/internal/domain/group"
	"github.com/rpggio/groupbite/internal/domain/session"
	"github.com/rpggio/groupbite/internal/domain/swipe"
	"github.com/rpggio/groupbite/internal/domain/vote"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) CodeValue() string {
	return e.Code
}

func (e *APIError) MessageValue() string {
	return e.Message
}

func (e *APIError) DetailsValue() any {
	return e.Details
}

func (e *APIError) RecoveryHintValue() string {
	return e.RecoveryHint
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	switch {
	case errors.Is(err, group.ErrGroupNotFound):
		return &APIError{Code: "GROUP_NOT_FOUND", Message: "group not found", RecoveryHint: "Check the group id or call list_groups"}
	case errors.Is(err, group.ErrInviteNotFound):
		return &APIError{Code: "INVITE_NOT_FOUND", Message: "invite code not found", RecoveryHint: "Check the 8 character invite code"}
	case errors.Is(err, group.ErrAlreadyMember):
		return &APIError{Code: "ALREADY_MEMBER", Message: "already a member of this group"}
	case errors.Is(err, group.ErrNotMember):
		return &APIError{Code: "NOT_MEMBER", Message: "not a member of this group"}
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, swipe.ErrSessionNotFound):
		return &APIError{Code: "SESSION_NOT_FOUND", Message: "session not found", RecoveryHint: "Check the session id or call list_sessions"}
	case errors.Is(err, session.ErrNoActiveSession):
		return &APIError{Code: "NO_ACTIVE_SESSION", Message: "group has no active session", RecoveryHint: "Call create_session to start voting"}
	case errors.Is(err, session.ErrSessionInactive):
		return &APIError{Code: "SESSION_INACTIVE", Message: "session is no longer accepting votes", RecoveryHint: "Call get_active_session for the current session"}
	case errors.Is(err, session.ErrInvalidCandidate), errors.Is(err, swipe.ErrInvalidCandidate):
		return &APIError{Code: "INVALID_CANDIDATE", Message: "candidate is not part of the session", RecoveryHint: "Vote only on candidates listed in the session"}
	case errors.Is(err, session.ErrEmptyCandidateSet):
		return &APIError{Code: "EMPTY_CANDIDATE_SET", Message: "no restaurants matched the filters", RecoveryHint: "Widen the radius or relax the filters"}
	case errors.Is(err, session.ErrConflict):
		return &APIError{Code: "CONFLICT", Message: "session was modified concurrently", RecoveryHint: "Retry the request"}
	case errors.Is(err, session.ErrInvalidInput),
		errors.Is(err, group.ErrInvalidInput),
		errors.Is(err, swipe.ErrInvalidInput),
		errors.Is(err, vote.ErrInvalidValue):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	default:
		return nil
	}
}
