package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"photogallery/internal/config"
	apperrors "photogallery/internal/errors"
	"photogallery/internal/model"
)

// MockPhotoRepository is a mock implementation of PhotoRepository.
type MockPhotoRepository struct {
	mock.Mock
}

func (m *MockPhotoRepository) FindByID(ctx context.Context, id uint) (*model.Photo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Photo), args.Error(1)
}

func (m *MockPhotoRepository) ListPersonalIDs(ctx context.Context, userID uint) ([]uint, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]uint), args.Error(1)
}

func (m *MockPhotoRepository) Delete(ctx context.Context, id uint) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func newGalleryLayout(t *testing.T) config.Gallery {
	t.Helper()
	g := config.Gallery{SiteDir: t.TempDir(), GalleryFolder: "gallery", ThumbnailFolder: "thumbnail"}
	require.NoError(t, os.MkdirAll(g.GalleryDir(), 0o755))
	require.NoError(t, os.MkdirAll(g.ThumbnailDir(), 0o755))
	return g
}

func TestPhotoService_DeletePhoto(t *testing.T) {
	g := newGalleryLayout(t)
	full := filepath.Join(g.GalleryDir(), "cat.jpg")
	thumb := filepath.Join(g.ThumbnailDir(), "cat.jpg")
	require.NoError(t, os.WriteFile(full, []byte("full"), 0o644))
	require.NoError(t, os.WriteFile(thumb, []byte("thumb"), 0o644))

	repo := new(MockPhotoRepository)
	repo.On("FindByID", mock.Anything, uint(11)).Return(&model.Photo{ID: 11, File: "cat.jpg"}, nil).Once()
	repo.On("Delete", mock.Anything, uint(11)).Return(int64(1), nil).Once()
	svc := NewPhotoService(repo, g, zap.NewNop())

	ok, err := svc.DeletePhoto(context.Background(), 11)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoFileExists(t, full)
	assert.NoFileExists(t, thumb)
	repo.AssertExpectations(t)
}

func TestPhotoService_DeletePhotoWithoutFiles(t *testing.T) {
	g := newGalleryLayout(t)
	repo := new(MockPhotoRepository)
	repo.On("FindByID", mock.Anything, uint(11)).Return(&model.Photo{ID: 11, File: "gone.jpg"}, nil).Once()
	repo.On("Delete", mock.Anything, uint(11)).Return(int64(1), nil).Once()
	svc := NewPhotoService(repo, g, zap.NewNop())

	ok, err := svc.DeletePhoto(context.Background(), 11)

	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPhotoService_DeleteMissingRow(t *testing.T) {
	repo := new(MockPhotoRepository)
	repo.On("FindByID", mock.Anything, uint(11)).Return(nil, apperrors.ErrFileNotFound).Once()
	svc := NewPhotoService(repo, newGalleryLayout(t), zap.NewNop())

	ok, err := svc.DeletePhoto(context.Background(), 11)

	require.NoError(t, err)
	assert.False(t, ok)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestPhotoService_PathStaysInsideFolders(t *testing.T) {
	g := newGalleryLayout(t)
	outside := filepath.Join(g.SiteDir, "keep.jpg")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	repo := new(MockPhotoRepository)
	repo.On("FindByID", mock.Anything, uint(11)).Return(&model.Photo{ID: 11, File: "../keep.jpg"}, nil).Once()
	repo.On("Delete", mock.Anything, uint(11)).Return(int64(1), nil).Once()
	svc := NewPhotoService(repo, g, zap.NewNop())

	_, err := svc.DeletePhoto(context.Background(), 11)

	require.NoError(t, err)
	assert.FileExists(t, outside)
}

func TestPhotoService_PersonalPhotoIDs(t *testing.T) {
	repo := new(MockPhotoRepository)
	repo.On("ListPersonalIDs", mock.Anything, uint(5)).Return([]uint{1, 2}, nil).Once()
	svc := NewPhotoService(repo, config.Gallery{}, zap.NewNop())

	ids, err := svc.PersonalPhotoIDs(context.Background(), 5)

	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, ids)
}
