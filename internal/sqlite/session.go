package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/groupbite/internal/domain/candidate"
	"github.com/rpggio/groupbite/internal/domain/session"
	"github.com/rpggio/groupbite/internal/domain/swipe"
	"github.com/rpggio/groupbite/internal/repository"
)

var (
	_ session.SessionRepository = (*SessionRepository)(nil)
	_ swipe.CandidateLookup     = (*SessionRepository)(nil)
)

// SessionRepository implements session.SessionRepository for SQLite
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `
	id, group_id, created_by, created_at, is_active,
	concluded_at, candidates, filters, version
`

// Create creates a new session. A second active session for the same group
// is rejected with repository.ErrConflict.
func (r *SessionRepository) Create(ctx context.Context, sess *session.Session) error {
	return insertSession(ctx, r.db, sess)
}

// Supersede deactivates every active session of the group, inserts sess and
// points the group at it, all in one transaction. It returns the ids of the
// sessions it deactivated.
func (r *SessionRepository) Supersede(ctx context.Context, sess *session.Session, at time.Time) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ids, err := deactivateGroup(ctx, tx, sess.GroupID, at)
	if err != nil {
		return nil, err
	}
	if err := insertSession(ctx, tx, sess); err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE groups SET current_session_id = ? WHERE id = ?`, sess.ID, sess.GroupID)
	if err != nil {
		return nil, fmt.Errorf("failed to update group: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	} else if n == 0 {
		return nil, repository.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return ids, nil
}

// Get retrieves a session document by ID. Votes are not loaded.
func (r *SessionRepository) Get(ctx context.Context, id string) (*session.Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

// GetActive retrieves the most recent active session of a group
func (r *SessionRepository) GetActive(ctx context.Context, groupID string) (*session.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE group_id = ? AND is_active = 1
		ORDER BY created_at DESC
		LIMIT 1
	`, groupID)
	return scanSession(row)
}

// Update overwrites the session document when the stored version matches
func (r *SessionRepository) Update(ctx context.Context, sess *session.Session, expectedVersion int64) error {
	candidates, filters, err := encodeSessionDoc(sess)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET is_active = ?, concluded_at = ?, candidates = ?, filters = ?, version = version + 1
		WHERE id = ? AND version = ?
	`,
		sess.Active,
		sess.ConcludedAt,
		candidates,
		filters,
		sess.ID,
		expectedVersion,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to update session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		var exists int
		err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE id = ?`, sess.ID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check session existence: %w", err)
		}
		if exists == 0 {
			return repository.ErrNotFound
		}
		return repository.ErrConflict
	}

	sess.Version = expectedVersion + 1
	return nil
}

// ListByGroup returns session history for a group, newest first
func (r *SessionRepository) ListByGroup(ctx context.Context, groupID string, limit int) ([]session.SessionInfo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, group_id, created_by, created_at, is_active, concluded_at,
		       json_array_length(candidates)
		FROM sessions
		WHERE group_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, groupID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []session.SessionInfo{}
	for rows.Next() {
		var info session.SessionInfo
		var concludedAt sql.NullTime
		if err := rows.Scan(
			&info.ID,
			&info.GroupID,
			&info.CreatedBy,
			&info.CreatedAt,
			&info.Active,
			&concludedAt,
			&info.CandidateCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session info: %w", err)
		}
		if concludedAt.Valid {
			info.ConcludedAt = &concludedAt.Time
		}
		sessions = append(sessions, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}
	return sessions, nil
}

// SessionCandidates returns the frozen candidate list of a session
func (r *SessionRepository) SessionCandidates(ctx context.Context, sessionID string) ([]candidate.Candidate, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT candidates FROM sessions WHERE id = ?`, sessionID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session candidates: %w", err)
	}

	var candidates []candidate.Candidate
	if err := json.Unmarshal([]byte(raw), &candidates); err != nil {
		return nil, fmt.Errorf("failed to decode candidates: %w", err)
	}
	return candidates, nil
}

func scanSession(row *sql.Row) (*session.Session, error) {
	var sess session.Session
	var concludedAt sql.NullTime
	var candidates, filters string
	err := row.Scan(
		&sess.ID,
		&sess.GroupID,
		&sess.CreatedBy,
		&sess.CreatedAt,
		&sess.Active,
		&concludedAt,
		&candidates,
		&filters,
		&sess.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if concludedAt.Valid {
		sess.ConcludedAt = &concludedAt.Time
	}
	if err := json.Unmarshal([]byte(candidates), &sess.Candidates); err != nil {
		return nil, fmt.Errorf("failed to decode candidates: %w", err)
	}
	if err := json.Unmarshal([]byte(filters), &sess.Filters); err != nil {
		return nil, fmt.Errorf("failed to decode filters: %w", err)
	}
	return &sess, nil
}

func encodeSessionDoc(sess *session.Session) (string, string, error) {
	list := sess.Candidates
	if list == nil {
		list = []candidate.Candidate{}
	}
	candidates, err := json.Marshal(list)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode candidates: %w", err)
	}
	filters, err := json.Marshal(sess.Filters)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode filters: %w", err)
	}
	return string(candidates), string(filters), nil
}

type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func insertSession(ctx context.Context, q execQuerier, sess *session.Session) error {
	candidates, filters, err := encodeSessionDoc(sess)
	if err != nil {
		return err
	}
	if sess.Version == 0 {
		sess.Version = 1
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		sess.ID,
		sess.GroupID,
		sess.CreatedBy,
		sess.CreatedAt,
		sess.Active,
		sess.ConcludedAt,
		candidates,
		filters,
		sess.Version,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func deactivateGroup(ctx context.Context, q execQuerier, groupID string, at time.Time) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id FROM sessions WHERE group_id = ? AND is_active = 1`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	if len(ids) > 0 {
		if _, err := q.ExecContext(ctx, `
			UPDATE sessions
			SET is_active = 0, concluded_at = ?, version = version + 1
			WHERE group_id = ? AND is_active = 1
		`, at, groupID); err != nil {
			return nil, fmt.Errorf("failed to deactivate sessions: %w", err)
		}
	}
	return ids, nil
}
