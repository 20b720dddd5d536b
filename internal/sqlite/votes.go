package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rpggio/groupbite/internal/domain/session"
	"github.com/rpggio/groupbite/internal/domain/vote"
	"github.com/rpggio/groupbite/internal/repository"
)

var _ session.VoteStore = (*VoteRepository)(nil)

// VoteRepository stores session vote tables one cell per row. The session's
// active flag in the sessions table gates every write.
type VoteRepository struct {
	db *DB
}

// NewVoteRepository creates a new VoteRepository
func NewVoteRepository(db *DB) *VoteRepository {
	return &VoteRepository{db: db}
}

// Open is a no-op; the sessions table already tracks whether voting is open.
func (r *VoteRepository) Open(ctx context.Context, sessionID string) error {
	return nil
}

// Seal is a no-op; see Open.
func (r *VoteRepository) Seal(ctx context.Context, sessionID string) error {
	return nil
}

// Upsert writes one cell if the session is active
func (r *VoteRepository) Upsert(ctx context.Context, sessionID, memberID, candidateID string, value vote.Value) error {
	query := `
		INSERT INTO session_votes (session_id, member_id, candidate_id, value, updated_at)
		SELECT ?, ?, ?, ?, ?
		WHERE EXISTS (SELECT 1 FROM sessions WHERE id = ? AND is_active = 1)
		ON CONFLICT (session_id, member_id, candidate_id)
		DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	result, err := r.db.ExecContext(ctx, query,
		sessionID, memberID, candidateID, string(value), time.Now().UTC(), sessionID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("failed to upsert vote: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrConflict
	}
	return nil
}

// Table loads a session's full vote table
func (r *VoteRepository) Table(ctx context.Context, sessionID string) (vote.Table, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT member_id, candidate_id, value FROM session_votes WHERE session_id = ?`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load votes: %w", err)
	}
	defer rows.Close()

	table := vote.Table{}
	for rows.Next() {
		var member, candidateID, value string
		if err := rows.Scan(&member, &candidateID, &value); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		table.Set(member, candidateID, vote.Value(value))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating votes: %w", err)
	}
	return table, nil
}
