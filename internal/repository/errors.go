// Package repository holds the storage sentinels shared by every backend.
// Domain services translate them into their own errors.
package repository

import "errors"

var (
	// ErrNotFound: no row, key or document with that id.
	ErrNotFound = errors.New("not found")

	// ErrConflict: a version precondition failed, a second active session
	// was rejected, or a vote arrived after the session closed.
	ErrConflict = errors.New("conflict: entity was modified concurrently")

	// ErrForeignKeyViolation: a referenced group or session is missing.
	ErrForeignKeyViolation = errors.New("foreign key violation")

	// ErrDuplicate: a unique key (invite code, membership, API key) is taken.
	ErrDuplicate = errors.New("duplicate entity")
)
