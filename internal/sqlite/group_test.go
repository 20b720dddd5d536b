package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/groupbite/internal/domain/group"
	"github.com/rpggio/groupbite/internal/repository"
	"github.com/stretchr/testify/require"
)

func createGroup(t *testing.T, repo *GroupRepository, id, code string, createdAt time.Time, members ...string) *group.Group {
	t.Helper()
	desc := "friday lunch"
	g := &group.Group{
		ID:          id,
		Name:        "Group " + id,
		Description: &desc,
		CreatedBy:   members[0],
		Members:     members,
		InviteCode:  code,
		IsActive:    true,
		CreatedAt:   createdAt,
	}
	require.NoError(t, repo.Create(context.Background(), g))
	return g
}

func TestGroupRepository_CreateGet(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewGroupRepository(db)

	createGroup(t, repo, "g1", "ABCD1234", time.Now().UTC(), "alice", "bob")

	g, err := repo.Get(ctx, "g1")
	require.NoError(t, err)
	require.Equal(t, "Group g1", g.Name)
	require.Equal(t, []string{"alice", "bob"}, g.Members)
	require.NotNil(t, g.Description)
	require.True(t, g.IsActive)
	require.Nil(t, g.CurrentSessionID)

	byCode, err := repo.GetByInviteCode(ctx, "ABCD1234")
	require.NoError(t, err)
	require.Equal(t, "g1", byCode.ID)

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.GetByInviteCode(ctx, "ZZZZZZZZ")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGroupRepository_DuplicateInviteCode(t *testing.T) {
	db := NewTestDB(t)
	repo := NewGroupRepository(db)
	createGroup(t, repo, "g1", "SAMECODE", time.Now(), "alice")

	err := repo.Create(context.Background(), &group.Group{
		ID:         "g2",
		Name:       "other",
		CreatedBy:  "bob",
		Members:    []string{"bob"},
		InviteCode: "SAMECODE",
		IsActive:   true,
		CreatedAt:  time.Now(),
	})
	require.ErrorIs(t, err, repository.ErrDuplicate)

	_, err = repo.Get(context.Background(), "g2")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGroupRepository_Membership(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewGroupRepository(db)
	createGroup(t, repo, "g1", "CODE0001", time.Now(), "alice")

	require.NoError(t, repo.AddMember(ctx, "g1", "bob"))
	require.NoError(t, repo.AddMember(ctx, "g1", "carol"))
	require.ErrorIs(t, repo.AddMember(ctx, "g1", "bob"), repository.ErrDuplicate)
	require.ErrorIs(t, repo.AddMember(ctx, "missing", "bob"), repository.ErrNotFound)

	g, err := repo.Get(ctx, "g1")
	require.NoError(t, err)
	require.Equal(t, []string{"alice", "bob", "carol"}, g.Members)

	remaining, err := repo.RemoveMember(ctx, "g1", "bob")
	require.NoError(t, err)
	require.Equal(t, 2, remaining)

	_, err = repo.RemoveMember(ctx, "g1", "bob")
	require.ErrorIs(t, err, repository.ErrNotFound)

	remaining, err = repo.RemoveMember(ctx, "g1", "alice")
	require.NoError(t, err)
	require.Equal(t, 1, remaining)
	remaining, err = repo.RemoveMember(ctx, "g1", "carol")
	require.NoError(t, err)
	require.Zero(t, remaining)
}

func TestGroupRepository_ListForMember(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewGroupRepository(db)

	base := time.Now().UTC()
	createGroup(t, repo, "g1", "CODE0001", base, "alice", "bob")
	createGroup(t, repo, "g2", "CODE0002", base.Add(time.Minute), "alice")
	createGroup(t, repo, "g3", "CODE0003", base, "carol")

	list, err := repo.ListForMember(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "g2", list[0].ID)
	require.Equal(t, 1, list[0].MemberCount)
	require.Equal(t, "g1", list[1].ID)
	require.Equal(t, 2, list[1].MemberCount)

	none, err := repo.ListForMember(ctx, "dave")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestGroupRepository_ActiveAndCurrentSession(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewGroupRepository(db)
	createGroup(t, repo, "g1", "CODE0001", time.Now(), "alice")

	require.NoError(t, repo.SetActive(ctx, "g1", false))
	require.ErrorIs(t, repo.SetActive(ctx, "missing", false), repository.ErrNotFound)

	_, err := db.ExecContext(ctx, `UPDATE groups SET current_session_id = 's1' WHERE id = 'g1'`)
	require.NoError(t, err)

	g, err := repo.Get(ctx, "g1")
	require.NoError(t, err)
	require.False(t, g.IsActive)
	require.NotNil(t, g.CurrentSessionID)
	require.Equal(t, "s1", *g.CurrentSessionID)

	// A stale session id leaves the pointer alone
	require.NoError(t, repo.ClearCurrentSession(ctx, "g1", "s0"))
	g, err = repo.Get(ctx, "g1")
	require.NoError(t, err)
	require.NotNil(t, g.CurrentSessionID)

	require.NoError(t, repo.ClearCurrentSession(ctx, "g1", "s1"))
	g, err = repo.Get(ctx, "g1")
	require.NoError(t, err)
	require.Nil(t, g.CurrentSessionID)
}
