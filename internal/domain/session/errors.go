package session

import "errors"

var (
	// ErrSessionNotFound indicates the session doesn't exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNoActiveSession indicates the group has no active session.
	ErrNoActiveSession = errors.New("no active session for group")
	// ErrSessionInactive indicates the session was concluded or superseded.
	ErrSessionInactive = errors.New("session is no longer active")
	// ErrInvalidCandidate indicates the candidate isn't part of the session.
	ErrInvalidCandidate = errors.New("candidate not in session")
	// ErrEmptyCandidateSet indicates the search produced no candidates.
	ErrEmptyCandidateSet = errors.New("no candidates found for filters")
	// ErrInvalidInput indicates invalid session input.
	ErrInvalidInput = errors.New("invalid session input")
	// ErrConflict indicates a concurrent writer won a race on the session.
	ErrConflict = errors.New("session was modified concurrently")
)
