package group

import "errors"

var (
	// ErrGroupNotFound indicates the group doesn't exist.
	ErrGroupNotFound = errors.New("group not found")
	// ErrInviteNotFound indicates no group uses the invite code.
	ErrInviteNotFound = errors.New("invite code not found")
	// ErrAlreadyMember indicates the member already belongs to the group.
	ErrAlreadyMember = errors.New("already a member of this group")
	// ErrNotMember indicates the member doesn't belong to the group.
	ErrNotMember = errors.New("not a member of this group")
	// ErrInvalidInput indicates invalid group input.
	ErrInvalidInput = errors.New("invalid group input")
)
