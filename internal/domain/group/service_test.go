package group_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/rpggio/groupbite/internal/domain/group"
	"github.com/rpggio/groupbite/internal/repository"
	"github.com/rpggio/groupbite/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGroupService_Create(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.GroupRepository{}
	repo.On("Create", ctx, mock.Anything).Return(nil)

	svc := group.NewService(repo, nil)
	g, err := svc.Create(ctx, group.CreateRequest{Name: "  Friday dinner ", CreatedBy: "alice"})
	require.NoError(t, err)
	require.Equal(t, "Friday dinner", g.Name)
	require.Equal(t, []string{"alice"}, g.Members)
	require.True(t, g.IsActive)
	require.Regexp(t, regexp.MustCompile(`^[0-9A-F]{8}$`), g.InviteCode)

	_, err = svc.Create(ctx, group.CreateRequest{Name: " ", CreatedBy: "alice"})
	require.ErrorIs(t, err, group.ErrInvalidInput)
}

func TestGroupService_Create_RetriesInviteCollision(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.GroupRepository{}
	repo.On("Create", ctx, mock.Anything).Return(repository.ErrDuplicate).Once()
	repo.On("Create", ctx, mock.Anything).Return(nil).Once()

	svc := group.NewService(repo, nil)
	_, err := svc.Create(ctx, group.CreateRequest{Name: "Lunch", CreatedBy: "alice"})
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "Create", 2)
}

func TestGroupService_Join(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.GroupRepository{}
	repo.On("GetByInviteCode", ctx, "ABCD1234").Return(&group.Group{
		ID:         "g1",
		Members:    []string{"alice"},
		InviteCode: "ABCD1234",
		IsActive:   true,
	}, nil)
	repo.On("AddMember", ctx, "g1", "bob").Return(nil)
	repo.On("GetByInviteCode", ctx, "NOPE0000").Return(nil, repository.ErrNotFound)

	svc := group.NewService(repo, nil)
	g, err := svc.Join(ctx, " abcd1234 ", "bob")
	require.NoError(t, err)
	require.Equal(t, []string{"alice", "bob"}, g.Members)

	_, err = svc.Join(ctx, "ABCD1234", "alice")
	require.ErrorIs(t, err, group.ErrAlreadyMember)

	_, err = svc.Join(ctx, "nope0000", "carol")
	require.ErrorIs(t, err, group.ErrInviteNotFound)
}

func TestGroupService_Join_ReactivatesEmptiedGroup(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.GroupRepository{}
	repo.On("GetByInviteCode", ctx, "ABCD1234").Return(&group.Group{ID: "g1", InviteCode: "ABCD1234"}, nil)
	repo.On("AddMember", ctx, "g1", "bob").Return(nil)
	repo.On("SetActive", ctx, "g1", true).Return(nil)

	svc := group.NewService(repo, nil)
	g, err := svc.Join(ctx, "ABCD1234", "bob")
	require.NoError(t, err)
	require.True(t, g.IsActive)
}

func TestGroupService_Leave(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.GroupRepository{}
	repo.On("RemoveMember", ctx, "g1", "bob").Return(1, nil)
	repo.On("RemoveMember", ctx, "g1", "alice").Return(0, nil)
	repo.On("RemoveMember", ctx, "g1", "zed").Return(0, repository.ErrNotFound)
	repo.On("SetActive", ctx, "g1", false).Return(nil)

	svc := group.NewService(repo, nil)
	require.NoError(t, svc.Leave(ctx, "g1", "bob"))
	repo.AssertNotCalled(t, "SetActive", ctx, "g1", false)

	require.NoError(t, svc.Leave(ctx, "g1", "alice"))
	repo.AssertCalled(t, "SetActive", ctx, "g1", false)

	require.ErrorIs(t, svc.Leave(ctx, "g1", "zed"), group.ErrNotMember)
}

func TestGroupService_GetAndPointer(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.GroupRepository{}
	repo.On("Get", ctx, "missing").Return(nil, repository.ErrNotFound)
	repo.On("ClearCurrentSession", ctx, "g1", "s1").Return(nil)

	svc := group.NewService(repo, nil)
	_, err := svc.Get(ctx, "missing")
	require.ErrorIs(t, err, group.ErrGroupNotFound)

	require.NoError(t, svc.ClearCurrentSession(ctx, "g1", "s1"))
}
