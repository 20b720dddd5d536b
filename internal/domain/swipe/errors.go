package swipe

import "errors"

var (
	// ErrInvalidInput indicates a swipe missing its member, group or candidate,
	// or carrying an unknown value.
	ErrInvalidInput = errors.New("invalid swipe input")
	// ErrInvalidCandidate indicates the candidate isn't part of the referenced session.
	ErrInvalidCandidate = errors.New("candidate not in session")
	// ErrSessionNotFound indicates the referenced session doesn't exist.
	ErrSessionNotFound = errors.New("session not found")
)
