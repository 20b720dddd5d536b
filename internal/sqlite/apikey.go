package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/groupbite/internal/auth"
	"github.com/rpggio/groupbite/internal/repository"
)

var _ auth.MemberResolver = (*APIKeyRepository)(nil)

// APIKeyRepository stores hashed API keys and resolves them to members
type APIKeyRepository struct {
	db *DB
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Create stores the hash of token for memberID
func (r *APIKeyRepository) Create(ctx context.Context, token, memberID, description string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO api_keys (key_hash, member_id, description, created_at) VALUES (?, ?, ?, ?)`,
		auth.HashToken(token), memberID, description, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create api key: %w", err)
	}
	return nil
}

// ResolveMember returns the member owning token and records its use
func (r *APIKeyRepository) ResolveMember(ctx context.Context, token string) (string, error) {
	hash := auth.HashToken(token)

	var memberID string
	err := r.db.QueryRowContext(ctx, `SELECT member_id FROM api_keys WHERE key_hash = ?`, hash).Scan(&memberID)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && memberID == "") {
		return "", auth.ErrInvalidToken
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve api key: %w", err)
	}

	if _, err := r.db.ExecContext(ctx,
		`UPDATE api_keys SET last_used = ? WHERE key_hash = ?`, time.Now().UTC(), hash); err != nil {
		return "", fmt.Errorf("failed to touch api key: %w", err)
	}
	return memberID, nil
}
