// Package auth resolves bearer tokens to member identities.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("authorization token required")
)

// MemberResolver resolves a member ID from a bearer token.
type MemberResolver interface {
	ResolveMember(ctx context.Context, token string) (string, error)
}

// Chain tries each resolver in order and returns the first member found.
type Chain []MemberResolver

// ResolveMember implements MemberResolver.
func (c Chain) ResolveMember(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrMissingToken
	}
	lastErr := ErrInvalidToken
	for _, r := range c {
		if r == nil {
			continue
		}
		memberID, err := r.ResolveMember(ctx, token)
		if err == nil && memberID != "" {
			return memberID, nil
		}
		if err != nil && !errors.Is(err, ErrInvalidToken) {
			lastErr = err
		}
	}
	return "", lastErr
}

// HashToken returns the hex SHA-256 of an API key as stored at rest.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
