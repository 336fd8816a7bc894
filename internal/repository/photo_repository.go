package repository

import (
	"context"

	"gorm.io/gorm"

	apperrors "photogallery/internal/errors"
	"photogallery/internal/model"
)

// PhotoRepository defines photo persistence operations needed by account cleanup.
type PhotoRepository interface {
	FindByID(ctx context.Context, id uint) (*model.Photo, error)
	ListPersonalIDs(ctx context.Context, userID uint) ([]uint, error)
	Delete(ctx context.Context, id uint) (int64, error)
}

type photoRepository struct {
	db *gorm.DB
}

// NewPhotoRepository creates a new photo repository.
func NewPhotoRepository(db *gorm.DB) PhotoRepository {
	return &photoRepository{db: db}
}

func (r *photoRepository) FindByID(ctx context.Context, id uint) (*model.Photo, error) {
	var photo model.Photo
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&photo).Error; err != nil {
		return nil, notFound(err, apperrors.ErrFileNotFound)
	}
	return &photo, nil
}

// ListPersonalIDs returns the ids of a user's uploads outside any album.
func (r *photoRepository) ListPersonalIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&model.Photo{}).
		Where("user_upload = ? AND category = ?", userID, model.PersonalCategory).
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *photoRepository) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Photo{})
	return res.RowsAffected, res.Error
}
