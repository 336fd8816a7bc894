package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"photogallery/internal/config"
	apperrors "photogallery/internal/errors"
	"photogallery/internal/repository"
)

// PhotoService removes photos together with their files.
type PhotoService interface {
	ContentDeleter
}

type photoService struct {
	repo    repository.PhotoRepository
	gallery config.Gallery
	log     *zap.Logger
}

// NewPhotoService builds a PhotoService over the gallery folders.
func NewPhotoService(repo repository.PhotoRepository, gallery config.Gallery, log *zap.Logger) PhotoService {
	return &photoService{repo: repo, gallery: gallery, log: log}
}

func (s *photoService) PersonalPhotoIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.repo.ListPersonalIDs(ctx, userID)
}

// DeletePhoto removes the full-size file, the thumbnail and the row. A
// missing file is not an error; a missing row yields false.
func (s *photoService) DeletePhoto(ctx context.Context, id uint) (bool, error) {
	photo, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, apperrors.ErrFileNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load photo %d: %w", id, err)
	}

	name := filepath.Base(photo.File)
	for _, dir := range []string{s.gallery.GalleryDir(), s.gallery.ThumbnailDir()} {
		path := filepath.Join(dir, name)
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return false, fmt.Errorf("remove %s: %w", path, err)
		}
	}

	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete photo %d: %w", id, err)
	}
	s.log.Debug("photo deleted", zap.Uint("photo_id", id), zap.String("file", name))
	return affected > 0, nil
}
