package group

import "context"

// GroupRepository provides persistence for groups and their membership.
type GroupRepository interface {
	Create(ctx context.Context, g *Group) error
	Get(ctx context.Context, id string) (*Group, error)
	GetByInviteCode(ctx context.Context, code string) (*Group, error)
	ListForMember(ctx context.Context, memberID string) ([]GroupSummary, error)
	AddMember(ctx context.Context, groupID, memberID string) error
	RemoveMember(ctx context.Context, groupID, memberID string) (remaining int, err error)
	SetActive(ctx context.Context, groupID string, active bool) error
	// ClearCurrentSession clears the pointer only while it still names sessionID.
	ClearCurrentSession(ctx context.Context, groupID, sessionID string) error
}
