package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rpggio/groupbite/internal/domain/swipe"
	"github.com/rpggio/groupbite/internal/domain/vote"
	"github.com/rpggio/groupbite/internal/repository"
)

var _ swipe.SwipeRepository = (*SwipeRepository)(nil)

// SwipeRepository implements swipe.SwipeRepository for SQLite
type SwipeRepository struct {
	db *DB
}

// NewSwipeRepository creates a new SwipeRepository
func NewSwipeRepository(db *DB) *SwipeRepository {
	return &SwipeRepository{db: db}
}

// Append inserts a swipe record
func (r *SwipeRepository) Append(ctx context.Context, v *vote.Vote) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO swipes (id, group_id, session_id, member_id, candidate_id, value, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		v.ID,
		v.GroupID,
		v.SessionID,
		v.MemberID,
		v.CandidateID,
		string(v.Value),
		v.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to append swipe: %w", err)
	}
	return nil
}

// ListByGroup returns a group's swipes in insertion order
func (r *SwipeRepository) ListByGroup(ctx context.Context, groupID string, sessionID *string) ([]vote.Vote, error) {
	query := `
		SELECT id, group_id, session_id, member_id, candidate_id, value, created_at
		FROM swipes
		WHERE group_id = ?
	`
	args := []any{groupID}
	if sessionID != nil {
		query += ` AND session_id = ?`
		args = append(args, *sessionID)
	}
	query += ` ORDER BY seq ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list swipes: %w", err)
	}
	defer rows.Close()

	votes := []vote.Vote{}
	for rows.Next() {
		var v vote.Vote
		var sid sql.NullString
		var value string
		if err := rows.Scan(&v.ID, &v.GroupID, &sid, &v.MemberID, &v.CandidateID, &value, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan swipe: %w", err)
		}
		v.Value = vote.Value(value)
		if sid.Valid {
			v.SessionID = &sid.String
		}
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating swipes: %w", err)
	}
	return votes, nil
}
