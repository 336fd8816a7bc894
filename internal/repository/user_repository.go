package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "photogallery/internal/errors"
	"photogallery/internal/model"
)

// UserField names a column that uniqueness checks may count on.
type UserField string

const (
	FieldLogin    UserField = "login"
	FieldEmail    UserField = "email"
	FieldRealName UserField = "real_name"
)

// UserRepository defines persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByLogin(ctx context.Context, login string) (*model.User, error)
	// Sample returns any one user row, or nil when the table is empty.
	Sample(ctx context.Context) (*model.User, error)
	CountByField(ctx context.Context, field UserField, value string) (int64, error)
	Update(ctx context.Context, id uint, fields map[string]any) error
	// CountActiveInGroup counts non-deleted members of a group other than excludeID.
	CountActiveInGroup(ctx context.Context, groupID, excludeID uint) (int64, error)
	ListSoftDeleted(ctx context.Context) ([]model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err, apperrors.ErrUserNotFound)
	}
	return &user, nil
}

func (r *userRepository) FindByLogin(ctx context.Context, login string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("login = ?", login).First(&user).Error; err != nil {
		return nil, notFound(err, apperrors.ErrUserNotFound)
	}
	return &user, nil
}

func (r *userRepository) Sample(ctx context.Context) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Order("id").Limit(1).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) CountByField(ctx context.Context, field UserField, value string) (int64, error) {
	switch field {
	case FieldLogin, FieldEmail, FieldRealName:
	default:
		return 0, fmt.Errorf("count users: unsupported field %q", field)
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where(string(field)+" = ?", value).
		Count(&count).Error
	return count, err
}

func (r *userRepository) Update(ctx context.Context, id uint, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *userRepository) CountActiveInGroup(ctx context.Context, groupID, excludeID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("group_id = ? AND id <> ?", groupID, excludeID).
		Where("deleted_at IS NULL AND permanently_deleted = ?", false).
		Count(&count).Error
	return count, err
}

func (r *userRepository) ListSoftDeleted(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).
		Where("deleted_at IS NOT NULL AND permanently_deleted = ?", false).
		Order("id").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// notFound replaces gorm's record-not-found with a domain error.
func notFound(err, domain error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain
	}
	return err
}
