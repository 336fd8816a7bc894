package handler

import (
	"context"
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"photogallery/internal/config"
	apperrors "photogallery/internal/errors"
	"photogallery/internal/media"
)

// ImageProcessor is the file-level image API used by ImageHandler.
type ImageProcessor interface {
	SizeImage(ctx context.Context, path string) (media.Dimensions, error)
	Resize(ctx context.Context, src, thumb string) error
	Attach(w http.ResponseWriter, path, filename string) error
	FixFileExtension(path string) (string, error)
	CreateCategoryDirs(name string) error
	RemoveCategoryDirs(name string) error
}

var _ ImageProcessor = (*media.Pipeline)(nil)

// ImageHandler streams images and manages thumbnails.
type ImageHandler struct {
	images  ImageProcessor
	gallery config.Gallery
	log     *zap.Logger
}

// NewImageHandler creates a new image handler.
func NewImageHandler(images ImageProcessor, gallery config.Gallery, log *zap.Logger) *ImageHandler {
	return &ImageHandler{images: images, gallery: gallery, log: log}
}

// FileRequest names a file inside the gallery folder.
type FileRequest struct {
	File string `json:"file" validate:"required"`
}

// ThumbnailResponse describes a generated thumbnail.
type ThumbnailResponse struct {
	File string           `json:"file"`
	Size media.Dimensions `json:"size"`
}

// Photo godoc
// @Summary Stream a full-size photo
// @Tags images
// @Produce image/jpeg,image/png,image/gif,image/webp
// @Param file path string true "File inside the gallery folder"
// @Success 200 {file} binary
// @Failure 404 {object} errors.ErrorResponse
// @Failure 415 {object} errors.ErrorResponse
// @Router /images/photo/{file} [get]
func (h *ImageHandler) Photo(c echo.Context) error {
	return h.attach(c, h.gallery.GalleryFolder)
}

// Thumbnail godoc
// @Summary Stream a thumbnail
// @Tags images
// @Produce image/jpeg,image/png,image/gif,image/webp
// @Param file path string true "File inside the thumbnail folder"
// @Success 200 {file} binary
// @Failure 404 {object} errors.ErrorResponse
// @Router /images/thumbnail/{file} [get]
func (h *ImageHandler) Thumbnail(c echo.Context) error {
	return h.attach(c, h.gallery.ThumbnailFolder)
}

func (h *ImageHandler) attach(c echo.Context, folder string) error {
	rel := c.Param("*")
	if rel == "" {
		return badRequest("file is required", "INVALID_PATH")
	}
	file, err := inFolder(folder, rel)
	if err != nil {
		return err
	}
	if err := h.images.Attach(c.Response(), file, path.Base(rel)); err != nil {
		if c.Response().Committed {
			h.log.Warn("image stream interrupted", zap.String("file", rel), zap.Error(err))
			return nil
		}
		return serviceError(err)
	}
	return nil
}

// Placeholder godoc
// @Summary Placeholder shown where no photo exists
// @Tags images
// @Produce json
// @Success 200 {object} media.Placeholder
// @Router /images/placeholder [get]
func (h *ImageHandler) Placeholder(c echo.Context) error {
	return c.JSON(http.StatusOK, media.NoPhoto(h.gallery))
}

// Size godoc
// @Summary Thumbnail dimensions for a gallery file
// @Tags images
// @Produce json
// @Param file query string true "File inside the gallery folder"
// @Success 200 {object} media.Dimensions
// @Failure 404 {object} errors.ErrorResponse
// @Router /images/size [get]
func (h *ImageHandler) Size(c echo.Context) error {
	file := c.QueryParam("file")
	if file == "" {
		return badRequest("file is required", "INVALID_PATH")
	}
	src, err := inFolder(h.gallery.GalleryFolder, file)
	if err != nil {
		return err
	}
	size, err := h.images.SizeImage(c.Request().Context(), src)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, size)
}

// CreateThumbnail godoc
// @Summary Generate the thumbnail of a gallery file
// @Tags images
// @Accept json
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token"
// @Param request body FileRequest true "Gallery file"
// @Success 200 {object} ThumbnailResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 415 {object} errors.ErrorResponse
// @Router /images/thumbnail [post]
func (h *ImageHandler) CreateThumbnail(c echo.Context) error {
	m, err := managerFrom(c)
	if err != nil {
		return err
	}
	if m.User().Guest {
		return forbidden()
	}
	req, err := h.bindFile(c)
	if err != nil {
		return err
	}
	src, err := inFolder(h.gallery.GalleryFolder, req.File)
	if err != nil {
		return err
	}
	thumb, err := inFolder(h.gallery.ThumbnailFolder, req.File)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.images.Resize(ctx, src, thumb); err != nil {
		h.log.Warn("thumbnail failed", zap.String("file", req.File), zap.Error(err))
		return serviceError(err)
	}
	size, err := h.images.SizeImage(ctx, src)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, ThumbnailResponse{File: req.File, Size: size})
}

// FixExtension godoc
// @Summary Rename a gallery file to match its content type
// @Tags images
// @Accept json
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token"
// @Param request body FileRequest true "Gallery file"
// @Success 200 {object} FileRequest
// @Failure 403 {object} errors.ErrorResponse
// @Failure 415 {object} errors.ErrorResponse
// @Router /images/fix-extension [post]
func (h *ImageHandler) FixExtension(c echo.Context) error {
	m, err := managerFrom(c)
	if err != nil {
		return err
	}
	if !m.IsAdmin() {
		return forbidden()
	}
	req, err := h.bindFile(c)
	if err != nil {
		return err
	}
	src, err := inFolder(h.gallery.GalleryFolder, req.File)
	if err != nil {
		return err
	}
	fixed, err := h.images.FixFileExtension(src)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, FileRequest{File: path.Base(fixed)})
}

// CreateCategory godoc
// @Summary Create the folders of a category
// @Tags categories
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token"
// @Param name path string true "Category folder"
// @Success 201 {object} OperationResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /categories/{name} [post]
func (h *ImageHandler) CreateCategory(c echo.Context) error {
	return h.categoryDirs(c, http.StatusCreated, h.images.CreateCategoryDirs)
}

// RemoveCategory godoc
// @Summary Remove the folders of a category
// @Tags categories
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token"
// @Param name path string true "Category folder"
// @Success 200 {object} OperationResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /categories/{name} [delete]
func (h *ImageHandler) RemoveCategory(c echo.Context) error {
	return h.categoryDirs(c, http.StatusOK, h.images.RemoveCategoryDirs)
}

func (h *ImageHandler) categoryDirs(c echo.Context, status int, op func(string) error) error {
	m, err := managerFrom(c)
	if err != nil {
		return err
	}
	if !m.IsAdmin() {
		return forbidden()
	}
	if err := op(c.Param("name")); err != nil {
		return serviceError(err)
	}
	return c.JSON(status, OperationResponse{OK: true})
}

// inFolder joins a client-supplied name under folder. Parent segments are
// refused before joining since path.Join would silently fold them away.
func inFolder(folder, name string) (string, error) {
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." {
			return "", serviceError(apperrors.ErrInvalidPath)
		}
	}
	return path.Join(folder, name), nil
}

func (h *ImageHandler) bindFile(c echo.Context) (FileRequest, error) {
	var req FileRequest
	if err := c.Bind(&req); err != nil {
		return req, badRequest("invalid request body", "INVALID_REQUEST")
	}
	if err := c.Validate(&req); err != nil {
		return req, badRequest(err.Error(), "INVALID_REQUEST")
	}
	return req, nil
}
