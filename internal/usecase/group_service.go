package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gameshelf/backend/internal/domain"
	"github.com/gameshelf/backend/internal/logger"
	"github.com/google/uuid"
)

const (
	maxGroupNameLength = 100
	inviteCodeLength   = 8
)

// GroupService manages groups, memberships and invites
type GroupService struct {
	groups  domain.GroupRepository
	newCode func() string
	now     func() time.Time
}

// NewGroupService creates a new group service
func NewGroupService(groups domain.GroupRepository) *GroupService {
	return &GroupService{
		groups:  groups,
		newCode: newInviteCode,
		now:     time.Now,
	}
}

// CreateGroup creates a group with the caller as its only admin
func (s *GroupService) CreateGroup(ctx context.Context, userID string, req *domain.CreateGroupRequest) (*domain.Group, error) {
	if req == nil {
		return nil, domain.ErrInvalidRequest
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > maxGroupNameLength {
		return nil, fmt.Errorf("%w: group name must be 1-%d characters", domain.ErrInvalidRequest, maxGroupNameLength)
	}

	group := &domain.Group{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		IsPrivate:   req.IsPrivate,
		Members:     map[string]domain.Role{userID: domain.RoleAdmin},
		CreatedBy:   userID,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.groups.Create(ctx, group); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}

	logger.Component("groups").Info().Str("group_id", group.ID).Str("user_id", userID).Msg("group created")
	return group, nil
}

// ListGroups returns the groups the caller belongs to
func (s *GroupService) ListGroups(ctx context.Context, userID string) ([]domain.Group, error) {
	groups, err := s.groups.ListForMember(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	if groups == nil {
		groups = []domain.Group{}
	}
	return groups, nil
}

// GetGroup returns a group the caller belongs to. Non-members get ErrGroupNotFound.
func (s *GroupService) GetGroup(ctx context.Context, userID, groupID string) (*domain.Group, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if _, ok := group.Members[userID]; !ok {
		return nil, domain.ErrGroupNotFound
	}
	return group, nil
}

// CreateInvite issues a fresh invite code, replacing the previous one. Admin only.
func (s *GroupService) CreateInvite(ctx context.Context, userID, groupID string) (string, error) {
	group, err := s.GetGroup(ctx, userID, groupID)
	if err != nil {
		return "", err
	}
	if group.Members[userID] != domain.RoleAdmin {
		return "", fmt.Errorf("%w: only admins can invite", domain.ErrForbidden)
	}

	code := s.newCode()
	if err := s.groups.SetInviteCode(ctx, groupID, code); err != nil {
		return "", fmt.Errorf("set invite code: %w", err)
	}
	return code, nil
}

// JoinGroup adds the caller as a member of the group owning the invite code
func (s *GroupService) JoinGroup(ctx context.Context, userID, code string) (*domain.Group, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, domain.ErrInviteNotFound
	}

	group, err := s.groups.GetByInviteCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if _, ok := group.Members[userID]; ok {
		return nil, domain.ErrAlreadyMember
	}

	if err := s.groups.AddMember(ctx, group.ID, userID, domain.RoleMember); err != nil {
		return nil, fmt.Errorf("join group: %w", err)
	}
	group.Members[userID] = domain.RoleMember

	logger.Component("groups").Info().Str("group_id", group.ID).Str("user_id", userID).Msg("member joined")
	return group, nil
}

// LeaveGroup removes the caller. The last member leaving deletes the group;
// the last admin cannot leave while other members remain.
func (s *GroupService) LeaveGroup(ctx context.Context, userID, groupID string) error {
	group, err := s.GetGroup(ctx, userID, groupID)
	if err != nil {
		return err
	}

	if len(group.Members) == 1 {
		if err := s.groups.Delete(ctx, groupID); err != nil {
			return fmt.Errorf("delete group: %w", err)
		}
		logger.Component("groups").Info().Str("group_id", groupID).Msg("group deleted after last member left")
		return nil
	}

	if group.Members[userID] == domain.RoleAdmin && group.AdminCount() == 1 {
		return domain.ErrLastAdmin
	}

	if err := s.groups.RemoveMember(ctx, groupID, userID); err != nil {
		return fmt.Errorf("leave group: %w", err)
	}
	return nil
}

// newInviteCode returns 8 upper-case hex characters from a random UUID
func newInviteCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:inviteCodeLength])
}
