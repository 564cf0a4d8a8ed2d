package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/gameshelf/backend/internal/domain"
	"gorm.io/gorm"
)

// GroupRepository implements domain.GroupRepository on gorm
type GroupRepository struct {
	db *gorm.DB
}

// NewGroupRepository creates a group repository
func NewGroupRepository(db *DB) *GroupRepository {
	return &GroupRepository{db: db.DB}
}

// Create inserts a group and its initial members
func (r *GroupRepository) Create(ctx context.Context, group *domain.Group) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := &groupModel{
			ID:          group.ID,
			Name:        group.Name,
			Description: group.Description,
			IsPrivate:   group.IsPrivate,
			InviteCode:  group.InviteCode,
			CreatedBy:   group.CreatedBy,
			CreatedAt:   group.CreatedAt,
		}
		if err := tx.Create(model).Error; err != nil {
			return fmt.Errorf("creating group: %w", err)
		}

		for memberID, role := range group.Members {
			member := &memberModel{GroupID: group.ID, MemberID: memberID, Role: string(role), JoinedAt: group.CreatedAt}
			if err := tx.Create(member).Error; err != nil {
				return fmt.Errorf("adding member: %w", err)
			}
		}
		return nil
	})
}

// GetByID loads a group with its members
func (r *GroupRepository) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	return r.first(ctx, "id = ?", id, domain.ErrGroupNotFound)
}

// GetByInviteCode loads the group owning an active invite code
func (r *GroupRepository) GetByInviteCode(ctx context.Context, code string) (*domain.Group, error) {
	if code == "" {
		return nil, domain.ErrInviteNotFound
	}
	return r.first(ctx, "invite_code = ?", code, domain.ErrInviteNotFound)
}

func (r *GroupRepository) first(ctx context.Context, query string, arg interface{}, notFound error) (*domain.Group, error) {
	var model groupModel
	err := r.db.WithContext(ctx).Where(query, arg).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying group: %w", err)
	}

	var members []memberModel
	if err := r.db.WithContext(ctx).Where("group_id = ?", model.ID).Find(&members).Error; err != nil {
		return nil, fmt.Errorf("querying members: %w", err)
	}
	return model.toDomain(members), nil
}

// ListForMember returns every group the member belongs to, oldest first
func (r *GroupRepository) ListForMember(ctx context.Context, memberID string) ([]domain.Group, error) {
	var models []groupModel
	err := r.db.WithContext(ctx).
		Where("id IN (?)", r.db.Model(&memberModel{}).Select("group_id").Where("member_id = ?", memberID)).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}
	if len(models) == 0 {
		return []domain.Group{}, nil
	}

	ids := make([]string, len(models))
	for i, m := range models {
		ids[i] = m.ID
	}
	var members []memberModel
	if err := r.db.WithContext(ctx).Where("group_id IN ?", ids).Find(&members).Error; err != nil {
		return nil, fmt.Errorf("querying members: %w", err)
	}

	groups := make([]domain.Group, len(models))
	for i := range models {
		groups[i] = *models[i].toDomain(members)
	}
	return groups, nil
}

// AddMember inserts a membership
func (r *GroupRepository) AddMember(ctx context.Context, groupID, memberID string, role domain.Role) error {
	member := &memberModel{GroupID: groupID, MemberID: memberID, Role: string(role), JoinedAt: nowUTC()}
	if err := r.db.WithContext(ctx).Create(member).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrAlreadyMember
		}
		return fmt.Errorf("adding member: %w", err)
	}
	return nil
}

// RemoveMember deletes a membership
func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, memberID string) error {
	res := r.db.WithContext(ctx).Where("group_id = ? AND member_id = ?", groupID, memberID).Delete(&memberModel{})
	if res.Error != nil {
		return fmt.Errorf("removing member: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrGroupNotFound
	}
	return nil
}

// SetInviteCode replaces the group's invite code
func (r *GroupRepository) SetInviteCode(ctx context.Context, groupID, code string) error {
	res := r.db.WithContext(ctx).Model(&groupModel{}).Where("id = ?", groupID).Update("invite_code", code)
	if res.Error != nil {
		return fmt.Errorf("updating invite code: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrGroupNotFound
	}
	return nil
}

// Delete removes a group and its memberships
func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", id).Delete(&memberModel{}).Error; err != nil {
			return fmt.Errorf("deleting members: %w", err)
		}
		if err := tx.Where("id = ?", id).Delete(&groupModel{}).Error; err != nil {
			return fmt.Errorf("deleting group: %w", err)
		}
		return nil
	})
}

// ShareGroup reports whether two users are members of at least one common group
func (r *GroupRepository) ShareGroup(ctx context.Context, a, b string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("group_members AS a").
		Joins("JOIN group_members AS b ON a.group_id = b.group_id").
		Where("a.member_id = ? AND b.member_id = ?", a, b).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking shared group: %w", err)
	}
	return count > 0, nil
}
