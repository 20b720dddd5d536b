package vote

import (
	"strings"
	"time"
)

// Value is a member's verdict on one candidate.
type Value string

const (
	Approve Value = "approve"
	Reject  Value = "reject"
)

// ParseValue accepts approve/reject and the swipe aliases like/dislike.
func ParseValue(s string) (Value, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approve", "like", "yes":
		return Approve, nil
	case "reject", "dislike", "no":
		return Reject, nil
	default:
		return "", ErrInvalidValue
	}
}

// Valid reports whether v is a known value.
func (v Value) Valid() bool {
	return v == Approve || v == Reject
}

// Table maps member ID to candidate ID to the member's current vote.
// A missing cell means "not yet voted", which is distinct from Reject.
type Table map[string]map[string]Value

// Set writes one cell, overwriting any earlier value.
func (t Table) Set(memberID, candidateID string, v Value) {
	row, ok := t[memberID]
	if !ok {
		row = make(map[string]Value)
		t[memberID] = row
	}
	row[candidateID] = v
}

// Get returns the cell value and whether it exists.
func (t Table) Get(memberID, candidateID string) (Value, bool) {
	v, ok := t[memberID][candidateID]
	return v, ok
}

// Voters returns the members with at least one cell.
func (t Table) Voters() []string {
	voters := make([]string, 0, len(t))
	for member, row := range t {
		if len(row) > 0 {
			voters = append(voters, member)
		}
	}
	return voters
}

// Clone returns a deep copy.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for member, row := range t {
		cp := make(map[string]Value, len(row))
		for k, v := range row {
			cp[k] = v
		}
		out[member] = cp
	}
	return out
}

// Vote is a standalone append-only swipe record, independent of any
// session's vote table.
type Vote struct {
	ID          string    `json:"id"`
	MemberID    string    `json:"member_id"`
	GroupID     string    `json:"group_id"`
	SessionID   *string   `json:"session_id,omitempty"`
	CandidateID string    `json:"candidate_id"`
	Value       Value     `json:"value"`
	CreatedAt   time.Time `json:"created_at"`
}
