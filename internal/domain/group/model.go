package group

import "time"

// Group is a set of members who vote together.
type Group struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      *string   `json:"description,omitempty"`
	CreatedBy        string    `json:"created_by"`
	Members          []string  `json:"members"`
	InviteCode       string    `json:"invite_code"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	CurrentSessionID *string   `json:"current_session_id,omitempty"`
}

// HasMember reports whether memberID belongs to the group.
func (g *Group) HasMember(memberID string) bool {
	for _, m := range g.Members {
		if m == memberID {
			return true
		}
	}
	return false
}

// GroupSummary is the list view of a group.
type GroupSummary struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	MemberCount      int       `json:"member_count"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	CurrentSessionID *string   `json:"current_session_id,omitempty"`
}
