package group

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/groupbite/internal/repository"
)

// InviteCodeLength is the number of characters in an invite code.
const InviteCodeLength = 8

const maxInviteAttempts = 5

// Service handles group operations.
type Service struct {
	groups GroupRepository
	logger *slog.Logger
}

// NewService creates a new group service.
func NewService(groups GroupRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{groups: groups, logger: logger}
}

// CreateRequest describes a group creation request.
type CreateRequest struct {
	Name        string
	Description *string
	CreatedBy   string
}

// Create creates a group owned by req.CreatedBy with a fresh invite code.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Group, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || req.CreatedBy == "" {
		return nil, ErrInvalidInput
	}

	for attempt := 1; ; attempt++ {
		g := &Group{
			ID:          uuid.NewString(),
			Name:        name,
			Description: req.Description,
			CreatedBy:   req.CreatedBy,
			Members:     []string{req.CreatedBy},
			InviteCode:  NewInviteCode(),
			IsActive:    true,
			CreatedAt:   time.Now().UTC(),
		}
		err := s.groups.Create(ctx, g)
		if err == nil {
			s.logger.Info("group created", "group_id", g.ID, "created_by", g.CreatedBy)
			return g, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) || attempt == maxInviteAttempts {
			return nil, fmt.Errorf("creating group: %w", err)
		}
		s.logger.Debug("invite code collision, retrying", "attempt", attempt)
	}
}

// Get returns a group by id.
func (s *Service) Get(ctx context.Context, groupID string) (*Group, error) {
	if groupID == "" {
		return nil, ErrInvalidInput
	}
	g, err := s.groups.Get(ctx, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("loading group: %w", err)
	}
	return g, nil
}

// Join adds memberID to the group identified by inviteCode.
func (s *Service) Join(ctx context.Context, inviteCode, memberID string) (*Group, error) {
	code := strings.ToUpper(strings.TrimSpace(inviteCode))
	if code == "" || memberID == "" {
		return nil, ErrInvalidInput
	}

	g, err := s.groups.GetByInviteCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("loading group by invite: %w", err)
	}
	if g.HasMember(memberID) {
		return nil, ErrAlreadyMember
	}

	if err := s.groups.AddMember(ctx, g.ID, memberID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyMember
		}
		return nil, fmt.Errorf("adding member: %w", err)
	}
	g.Members = append(g.Members, memberID)

	if !g.IsActive {
		if err := s.groups.SetActive(ctx, g.ID, true); err != nil {
			return nil, fmt.Errorf("reactivating group: %w", err)
		}
		g.IsActive = true
	}

	s.logger.Info("member joined group", "group_id", g.ID, "member_id", memberID)
	return g, nil
}

// Leave removes memberID from the group. A group left without members is
// flagged inactive but never deleted.
func (s *Service) Leave(ctx context.Context, groupID, memberID string) error {
	if groupID == "" || memberID == "" {
		return ErrInvalidInput
	}

	remaining, err := s.groups.RemoveMember(ctx, groupID, memberID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotMember
		}
		return fmt.Errorf("removing member: %w", err)
	}

	if remaining == 0 {
		if err := s.groups.SetActive(ctx, groupID, false); err != nil {
			return fmt.Errorf("deactivating group: %w", err)
		}
		s.logger.Info("group emptied", "group_id", groupID)
	}
	return nil
}

// ListForMember returns the groups memberID belongs to.
func (s *Service) ListForMember(ctx context.Context, memberID string) ([]GroupSummary, error) {
	if memberID == "" {
		return nil, ErrInvalidInput
	}
	groups, err := s.groups.ListForMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}
	return groups, nil
}

// ClearCurrentSession drops the group's session pointer if it still names sessionID.
func (s *Service) ClearCurrentSession(ctx context.Context, groupID, sessionID string) error {
	if err := s.groups.ClearCurrentSession(ctx, groupID, sessionID); err != nil {
		return fmt.Errorf("clearing current session: %w", err)
	}
	return nil
}

// NewInviteCode returns a short upper-case code derived from a random UUID.
func NewInviteCode() string {
	return strings.ToUpper(uuid.NewString()[:InviteCodeLength])
}
