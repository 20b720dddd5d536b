package redisstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rpggio/groupbite/internal/domain/session"
	"github.com/rpggio/groupbite/internal/domain/vote"
	"github.com/rpggio/groupbite/internal/repository"
)

var _ session.VoteStore = (*VoteStore)(nil)

// cellSep joins member and candidate ids into one hash field
const cellSep = "\x1f"

// upsertScript writes a cell only while the session's open marker exists.
// KEYS[1] open marker, KEYS[2] vote hash, ARGV[1] field, ARGV[2] value.
var upsertScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[2], ARGV[1], ARGV[2])
return 1
`)

// VoteStore keeps each session's vote table in a Redis hash.
//
//	<prefix>session:<id>:open   marker present while voting is allowed
//	<prefix>session:<id>:votes  hash of "<member>\x1f<candidate>" -> value
type VoteStore struct {
	rdb    *redis.Client
	prefix string
}

// Option configures a VoteStore
type Option func(*VoteStore)

// WithPrefix namespaces every key
func WithPrefix(prefix string) Option {
	return func(s *VoteStore) { s.prefix = prefix }
}

// NewVoteStore creates a VoteStore on rdb
func NewVoteStore(rdb *redis.Client, opts ...Option) *VoteStore {
	s := &VoteStore{rdb: rdb}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *VoteStore) openKey(sessionID string) string {
	return s.prefix + "session:" + sessionID + ":open"
}

func (s *VoteStore) votesKey(sessionID string) string {
	return s.prefix + "session:" + sessionID + ":votes"
}

// Open marks the session as accepting votes
func (s *VoteStore) Open(ctx context.Context, sessionID string) error {
	if err := s.rdb.Set(ctx, s.openKey(sessionID), "1", 0).Err(); err != nil {
		return fmt.Errorf("failed to open vote table: %w", err)
	}
	return nil
}

// Upsert writes one cell. A session without the open marker yields
// repository.ErrConflict.
func (s *VoteStore) Upsert(ctx context.Context, sessionID, memberID, candidateID string, value vote.Value) error {
	keys := []string{s.openKey(sessionID), s.votesKey(sessionID)}
	written, err := upsertScript.Run(ctx, s.rdb, keys, memberID+cellSep+candidateID, string(value)).Int()
	if err != nil {
		return fmt.Errorf("failed to upsert vote: %w", err)
	}
	if written == 0 {
		return repository.ErrConflict
	}
	return nil
}

// Table loads a session's full vote table
func (s *VoteStore) Table(ctx context.Context, sessionID string) (vote.Table, error) {
	cells, err := s.rdb.HGetAll(ctx, s.votesKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load votes: %w", err)
	}

	table := vote.Table{}
	for field, value := range cells {
		member, candidateID, ok := strings.Cut(field, cellSep)
		if !ok {
			continue
		}
		table.Set(member, candidateID, vote.Value(value))
	}
	return table, nil
}

// Seal removes the open marker so later writes are refused. The vote hash
// is kept without expiry so concluded sessions stay readable.
func (s *VoteStore) Seal(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, s.openKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to seal vote table: %w", err)
	}
	return nil
}
