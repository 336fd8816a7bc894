package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	apperrors "photogallery/internal/errors"
	"photogallery/internal/model"
)

// GroupRepository defines group persistence operations.
type GroupRepository interface {
	Create(ctx context.Context, group *model.Group) error
	FindByID(ctx context.Context, id uint) (*model.Group, error)
	// Sample returns any one group row, or nil when the table is empty.
	Sample(ctx context.Context) (*model.Group, error)
	Update(ctx context.Context, id uint, fields map[string]any) error
	// DeleteReassigning moves every member to fallbackID, then deletes the
	// group. It returns the number of group rows removed.
	DeleteReassigning(ctx context.Context, id, fallbackID uint) (int64, error)
}

type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository creates a new group repository.
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

// Create creates a new group.
func (r *groupRepository) Create(ctx context.Context, group *model.Group) error {
	return r.db.WithContext(ctx).Create(group).Error
}

// FindByID finds a group by ID.
func (r *groupRepository) FindByID(ctx context.Context, id uint) (*model.Group, error) {
	var group model.Group
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&group).Error; err != nil {
		return nil, notFound(err, apperrors.ErrGroupNotFound)
	}
	return &group, nil
}

// Sample returns the lowest-id group.
func (r *groupRepository) Sample(ctx context.Context) (*model.Group, error) {
	var group model.Group
	err := r.db.WithContext(ctx).Order("id").Limit(1).Take(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// Update writes the given columns of a group.
func (r *groupRepository) Update(ctx context.Context, id uint, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&model.Group{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// DeleteReassigning runs the member move and the delete in one transaction.
func (r *groupRepository) DeleteReassigning(ctx context.Context, id, fallbackID uint) (int64, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.User{}).
			Where("group_id = ?", id).
			Update("group_id", fallbackID).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Group{})
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		return nil
	})
	return affected, err
}
