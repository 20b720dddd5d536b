package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/groupbite/internal/domain/group"
	"github.com/rpggio/groupbite/internal/repository"
)

var _ group.GroupRepository = (*GroupRepository)(nil)

// GroupRepository implements group.GroupRepository for SQLite
type GroupRepository struct {
	db *DB
}

// NewGroupRepository creates a new GroupRepository
func NewGroupRepository(db *DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// Create inserts a group and its initial members
func (r *GroupRepository) Create(ctx context.Context, g *group.Group) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO groups (
			id, name, description, created_by, invite_code,
			is_active, current_session_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		g.ID,
		g.Name,
		g.Description,
		g.CreatedBy,
		g.InviteCode,
		g.IsActive,
		g.CurrentSessionID,
		g.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create group: %w", err)
	}

	for i, member := range g.Members {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO group_members (group_id, member_id, position, joined_at) VALUES (?, ?, ?, ?)`,
			g.ID, member, i, g.CreatedAt,
		); err != nil {
			if isUniqueViolation(err) {
				return repository.ErrDuplicate
			}
			return fmt.Errorf("failed to add member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit group: %w", err)
	}
	return nil
}

// Get retrieves a group by ID
func (r *GroupRepository) Get(ctx context.Context, id string) (*group.Group, error) {
	return r.getBy(ctx, "id", id)
}

// GetByInviteCode retrieves a group by its invite code
func (r *GroupRepository) GetByInviteCode(ctx context.Context, code string) (*group.Group, error) {
	return r.getBy(ctx, "invite_code", code)
}

func (r *GroupRepository) getBy(ctx context.Context, column, value string) (*group.Group, error) {
	query := `
		SELECT id, name, description, created_by, invite_code,
		       is_active, current_session_id, created_at
		FROM groups
		WHERE ` + column + ` = ?
	`

	var g group.Group
	var description, currentSession sql.NullString
	err := r.db.QueryRowContext(ctx, query, value).Scan(
		&g.ID,
		&g.Name,
		&description,
		&g.CreatedBy,
		&g.InviteCode,
		&g.IsActive,
		&currentSession,
		&g.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	if description.Valid {
		g.Description = &description.String
	}
	if currentSession.Valid {
		g.CurrentSessionID = &currentSession.String
	}

	members, err := r.members(ctx, g.ID)
	if err != nil {
		return nil, err
	}
	g.Members = members
	return &g, nil
}

func (r *GroupRepository) members(ctx context.Context, groupID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT member_id FROM group_members WHERE group_id = ? ORDER BY position ASC`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	members := []string{}
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}
	return members, nil
}

// ListForMember returns summaries of the groups a member belongs to, newest first
func (r *GroupRepository) ListForMember(ctx context.Context, memberID string) ([]group.GroupSummary, error) {
	query := `
		SELECT g.id, g.name, g.is_active, g.created_at, g.current_session_id,
		       (SELECT COUNT(*) FROM group_members c WHERE c.group_id = g.id)
		FROM groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.member_id = ?
		ORDER BY g.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	groups := []group.GroupSummary{}
	for rows.Next() {
		var s group.GroupSummary
		var currentSession sql.NullString
		if err := rows.Scan(&s.ID, &s.Name, &s.IsActive, &s.CreatedAt, &currentSession, &s.MemberCount); err != nil {
			return nil, fmt.Errorf("failed to scan group summary: %w", err)
		}
		if currentSession.Valid {
			s.CurrentSessionID = &currentSession.String
		}
		groups = append(groups, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating groups: %w", err)
	}
	return groups, nil
}

// AddMember appends a member to the group
func (r *GroupRepository) AddMember(ctx context.Context, groupID, memberID string) error {
	query := `
		INSERT INTO group_members (group_id, member_id, position, joined_at)
		SELECT ?, ?, COALESCE(MAX(position), -1) + 1, ?
		FROM group_members WHERE group_id = ?
	`
	_, err := r.db.ExecContext(ctx, query, groupID, memberID, time.Now().UTC(), groupID)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// RemoveMember removes a member and returns how many remain
func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, memberID string) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = ? AND member_id = ?`, groupID, memberID)
	if err != nil {
		return 0, fmt.Errorf("failed to remove member: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return 0, repository.ErrNotFound
	}

	var remaining int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM group_members WHERE group_id = ?`, groupID).Scan(&remaining); err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return remaining, nil
}

// SetActive flips the group's active flag
func (r *GroupRepository) SetActive(ctx context.Context, groupID string, active bool) error {
	return r.exec(ctx, `UPDATE groups SET is_active = ? WHERE id = ?`, active, groupID)
}

// ClearCurrentSession clears the pointer if it still references sessionID
func (r *GroupRepository) ClearCurrentSession(ctx context.Context, groupID, sessionID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE groups SET current_session_id = NULL WHERE id = ? AND current_session_id = ?`,
		groupID, sessionID)
	if err != nil {
		return fmt.Errorf("failed to clear current session: %w", err)
	}
	return nil
}

func (r *GroupRepository) exec(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
