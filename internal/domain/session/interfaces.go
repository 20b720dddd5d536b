package session

import (
	"context"
	"time"

	"github.com/rpggio/groupbite/internal/domain/group"
	"github.com/rpggio/groupbite/internal/domain/vote"
)

// SessionRepository provides persistence for session documents.
type SessionRepository interface {
	Get(ctx context.Context, id string) (*Session, error)
	GetActive(ctx context.Context, groupID string) (*Session, error)
	// Update overwrites the document if its stored version equals
	// expectedVersion and bumps sess.Version.
	Update(ctx context.Context, sess *Session, expectedVersion int64) error
	// Supersede atomically deactivates the group's active sessions, stores
	// sess and makes it the group's current session. It returns the ids it
	// deactivated. On error nothing is changed.
	Supersede(ctx context.Context, sess *Session, at time.Time) ([]string, error)
	ListByGroup(ctx context.Context, groupID string, limit int) ([]SessionInfo, error)
}

// VoteStore holds the per-cell vote table of each session. Upsert fails
// with repository.ErrConflict once the session is sealed or inactive.
type VoteStore interface {
	Open(ctx context.Context, sessionID string) error
	Upsert(ctx context.Context, sessionID, memberID, candidateID string, value vote.Value) error
	Table(ctx context.Context, sessionID string) (vote.Table, error)
	Seal(ctx context.Context, sessionID string) error
}

// Groups provides the group lookup and pointer cleanup the lifecycle needs.
type Groups interface {
	Get(ctx context.Context, groupID string) (*group.Group, error)
	ClearCurrentSession(ctx context.Context, groupID, sessionID string) error
}

// Publisher receives session change events.
type Publisher interface {
	Publish(ev Event)
}

// Observer receives counters for engine activity.
type Observer interface {
	SessionCreated(candidates int)
	SessionConcluded()
	VoteRecorded(value vote.Value)
	WriteConflict(op string)
}
