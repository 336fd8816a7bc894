package media

import (
	"fmt"
	"os"
	"path/filepath"

	apperrors "photogallery/internal/errors"
)

// CreateCategoryDirs creates the gallery and thumbnail folders of a category.
func (p *Pipeline) CreateCategoryDirs(name string) error {
	dirs, err := p.categoryDirs(name)
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create category folder: %w", err)
		}
	}
	return nil
}

// RemoveCategoryDirs removes both folders of a category with their contents.
// Missing folders are not an error.
func (p *Pipeline) RemoveCategoryDirs(name string) error {
	dirs, err := p.categoryDirs(name)
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove category folder: %w", err)
		}
	}
	return nil
}

func (p *Pipeline) categoryDirs(name string) ([]string, error) {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name || !pathPattern.MatchString(name) {
		return nil, fmt.Errorf("%w: category %q", apperrors.ErrInvalidPath, name)
	}
	return []string{
		filepath.Join(p.gallery.GalleryDir(), name),
		filepath.Join(p.gallery.ThumbnailDir(), name),
	}, nil
}
