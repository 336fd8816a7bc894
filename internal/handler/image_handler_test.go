package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"photogallery/internal/config"
	apperrors "photogallery/internal/errors"
	"photogallery/internal/media"
	"photogallery/internal/service"
)

var testGallery = config.Gallery{
	SiteURL:         "http://gallery.test/",
	GalleryFolder:   "gallery",
	ThumbnailFolder: "thumbnail",
	TempPhotoW:      800,
	TempPhotoH:      600,
	NoPhotoFile:     "no_foto.png",
}

func TestImageHandler_Photo(t *testing.T) {
	images := new(MockImageProcessor)
	h := NewImageHandler(images, testGallery, zap.NewNop())

	t.Run("streams from the gallery folder", func(t *testing.T) {
		images.On("Attach", mock.Anything, "gallery/cats/a.jpg", "a.jpg").Return(nil).Once()

		c, _ := newContext(newEcho(), nil, http.MethodGet, "/images/photo/cats/a.jpg", "")
		c.SetParamNames("*")
		c.SetParamValues("cats/a.jpg")
		require.NoError(t, h.Photo(c))
	})

	t.Run("thumbnail folder", func(t *testing.T) {
		images.On("Attach", mock.Anything, "thumbnail/a.jpg", "a.jpg").
			Return(apperrors.ErrFileNotFound).Once()

		c, _ := newContext(newEcho(), nil, http.MethodGet, "/images/thumbnail/a.jpg", "")
		c.SetParamNames("*")
		c.SetParamValues("a.jpg")
		assert.Equal(t, http.StatusNotFound, httpStatus(h.Thumbnail(c)))
	})

	t.Run("not an image", func(t *testing.T) {
		images.On("Attach", mock.Anything, "gallery/notes.txt", "notes.txt").
			Return(apperrors.ErrUnsupportedType).Once()

		c, _ := newContext(newEcho(), nil, http.MethodGet, "/images/photo/notes.txt", "")
		c.SetParamNames("*")
		c.SetParamValues("notes.txt")
		assert.Equal(t, http.StatusUnsupportedMediaType, httpStatus(h.Photo(c)))
	})

	t.Run("parent segments are refused", func(t *testing.T) {
		c, _ := newContext(newEcho(), nil, http.MethodGet, "/images/photo/x", "")
		c.SetParamNames("*")
		c.SetParamValues("../thumbnail/a.jpg")
		assert.Equal(t, http.StatusBadRequest, httpStatus(h.Photo(c)))
	})

	images.AssertExpectations(t)
}

func TestImageHandler_Placeholder(t *testing.T) {
	h := NewImageHandler(new(MockImageProcessor), testGallery, zap.NewNop())
	c, rec := newContext(newEcho(), nil, http.MethodGet, "/images/placeholder", "")
	require.NoError(t, h.Placeholder(c))

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "http://gallery.test/gallery/no_foto.png", got["url"])
	assert.Equal(t, "http://gallery.test/thumbnail/no_foto.png", got["thumbnail_url"])
	assert.Equal(t, "0", got["rate_user"])
}

func TestImageHandler_Size(t *testing.T) {
	images := new(MockImageProcessor)
	images.On("SizeImage", mock.Anything, "gallery/a.jpg").Return(media.Dimensions{Width: 800, Height: 450}, nil)
	h := NewImageHandler(images, testGallery, zap.NewNop())

	c, rec := newContext(newEcho(), nil, http.MethodGet, "/images/size?file=a.jpg", "")
	require.NoError(t, h.Size(c))
	assert.JSONEq(t, `{"width":800,"height":450}`, rec.Body.String())

	c, _ = newContext(newEcho(), nil, http.MethodGet, "/images/size", "")
	assert.Equal(t, http.StatusBadRequest, httpStatus(h.Size(c)))
}

func TestImageHandler_CreateThumbnail(t *testing.T) {
	body := `{"file":"a.jpg"}`

	t.Run("signed-in user", func(t *testing.T) {
		images := new(MockImageProcessor)
		images.On("Resize", mock.Anything, "gallery/a.jpg", "thumbnail/a.jpg").Return(nil)
		images.On("SizeImage", mock.Anything, "gallery/a.jpg").Return(media.Dimensions{Width: 600, Height: 600}, nil)
		m := new(MockAccountManager)
		m.On("User").Return(service.UserView{ID: 9, GroupID: 2})
		h := NewImageHandler(images, testGallery, zap.NewNop())

		c, rec := newContext(newEcho(), m, http.MethodPost, "/images/thumbnail", body)
		require.NoError(t, h.CreateThumbnail(c))

		var got ThumbnailResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "a.jpg", got.File)
		assert.Equal(t, 600, got.Size.Width)
		images.AssertExpectations(t)
	})

	t.Run("guest is forbidden", func(t *testing.T) {
		images := new(MockImageProcessor)
		m := new(MockAccountManager)
		m.On("User").Return(service.UserView{ID: 1, Guest: true, GroupID: 1})
		h := NewImageHandler(images, testGallery, zap.NewNop())

		c, _ := newContext(newEcho(), m, http.MethodPost, "/images/thumbnail", body)
		assert.Equal(t, http.StatusForbidden, httpStatus(h.CreateThumbnail(c)))
		images.AssertNotCalled(t, "Resize", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("image too large", func(t *testing.T) {
		images := new(MockImageProcessor)
		images.On("Resize", mock.Anything, "gallery/a.jpg", "thumbnail/a.jpg").Return(apperrors.ErrImageTooLarge)
		m := new(MockAccountManager)
		m.On("User").Return(service.UserView{ID: 9, GroupID: 2})
		h := NewImageHandler(images, testGallery, zap.NewNop())

		c, _ := newContext(newEcho(), m, http.MethodPost, "/images/thumbnail", body)
		assert.Equal(t, http.StatusRequestEntityTooLarge, httpStatus(h.CreateThumbnail(c)))
	})

	t.Run("missing file field", func(t *testing.T) {
		m := new(MockAccountManager)
		m.On("User").Return(service.UserView{ID: 9, GroupID: 2})
		h := NewImageHandler(new(MockImageProcessor), testGallery, zap.NewNop())

		c, _ := newContext(newEcho(), m, http.MethodPost, "/images/thumbnail", `{}`)
		assert.Equal(t, http.StatusBadRequest, httpStatus(h.CreateThumbnail(c)))
	})
}

func TestImageHandler_AdminOperations(t *testing.T) {
	images := new(MockImageProcessor)
	images.On("FixFileExtension", "gallery/a.jpg").Return("/srv/gallery/a.png", nil)
	images.On("CreateCategoryDirs", "cats").Return(nil)
	images.On("RemoveCategoryDirs", "../etc").Return(apperrors.ErrInvalidPath)
	h := NewImageHandler(images, testGallery, zap.NewNop())

	admin := new(MockAccountManager)
	admin.On("IsAdmin").Return(true)
	e := newEcho()

	c, rec := newContext(e, admin, http.MethodPost, "/images/fix-extension", `{"file":"a.jpg"}`)
	require.NoError(t, h.FixExtension(c))
	assert.JSONEq(t, `{"file":"a.png"}`, rec.Body.String())

	c, rec = newContext(e, admin, http.MethodPost, "/categories/cats", "")
	c.SetParamNames("name")
	c.SetParamValues("cats")
	require.NoError(t, h.CreateCategory(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	c, _ = newContext(e, admin, http.MethodDelete, "/categories/x", "")
	c.SetParamNames("name")
	c.SetParamValues("../etc")
	assert.Equal(t, http.StatusBadRequest, httpStatus(h.RemoveCategory(c)))

	member := new(MockAccountManager)
	member.On("IsAdmin").Return(false)
	c, _ = newContext(e, member, http.MethodPost, "/categories/dogs", "")
	c.SetParamNames("name")
	c.SetParamValues("dogs")
	assert.Equal(t, http.StatusForbidden, httpStatus(h.CreateCategory(c)))

	images.AssertExpectations(t)
}
