package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"photogallery/internal/config"
	apperrors "photogallery/internal/errors"
)

var pathPattern = regexp.MustCompile(`^[\p{L}\p{N}_ ./-]+$`)

// Pipeline produces thumbnails for files under the site directory.
type Pipeline struct {
	gallery  config.Gallery
	target   Dimensions
	backends []Backend
	log      *zap.Logger
}

// NewPipeline builds a pipeline over gallery. Without backends the default
// chain is used.
func NewPipeline(gallery config.Gallery, log *zap.Logger, backends ...Backend) *Pipeline {
	if len(backends) == 0 {
		backends = DefaultBackends()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		gallery:  gallery,
		target:   Dimensions{Width: gallery.TempPhotoW, Height: gallery.TempPhotoH},
		backends: backends,
		log:      log,
	}
}

// SizeImage returns the thumbnail dimensions for the image at path.
func (p *Pipeline) SizeImage(ctx context.Context, path string) (Dimensions, error) {
	path, err := p.resolve(path)
	if err != nil {
		return Dimensions{}, err
	}
	if err := checkReadable(path); err != nil {
		return Dimensions{}, err
	}
	actual, err := p.probe(ctx, path)
	if err != nil {
		return Dimensions{}, err
	}
	return ComputeThumbnailSize(actual, p.target), nil
}

// Resize writes a thumbnail of src to thumb. An existing thumbnail with the
// expected dimensions is left untouched. Backends that are missing, do not
// read the format or would exceed the memory budget are skipped; a failing
// backend hands over to the next one and the last error is returned.
func (p *Pipeline) Resize(ctx context.Context, src, thumb string) error {
	src, err := p.resolve(src)
	if err != nil {
		return err
	}
	thumb, err = p.resolve(thumb)
	if err != nil {
		return err
	}
	if err := checkReadable(src); err != nil {
		return err
	}
	if err := checkWritableDir(filepath.Dir(thumb)); err != nil {
		return err
	}

	actual, err := p.probe(ctx, src)
	if err != nil {
		return err
	}
	if actual.Width > MaxSourceDimension || actual.Height > MaxSourceDimension {
		return fmt.Errorf("%w: %s exceeds %dx%d", apperrors.ErrImageTooLarge, actual, MaxSourceDimension, MaxSourceDimension)
	}
	size := ComputeThumbnailSize(actual, p.target)

	target := Target{Path: thumb, Size: size}
	if existing, err := Probe(thumb); err == nil {
		target.Exists = true
		if existing == size {
			return nil
		}
	}

	mtype, err := mimetype.DetectFile(src)
	if err != nil {
		return fmt.Errorf("detect type of %s: %w", src, err)
	}
	asset := Asset{Path: src, MIME: baseMIME(mtype.String()), Size: actual}

	tx, err := beginBackup(thumb, p.log)
	if err != nil {
		return err
	}
	defer tx.rollback()

	lastErr := fmt.Errorf("%w for %s", apperrors.ErrNoBackend, asset.MIME)
	for _, b := range p.backends {
		if !b.Available() || !b.Supports(asset.MIME) {
			continue
		}
		if !fitsMemory(actual, p.gallery.MemoryLimit) {
			lastErr = fmt.Errorf("%s: %w: %s over memory budget", b.Name(), apperrors.ErrImageTooLarge, actual)
			p.log.Debug("backend declined", zap.String("backend", b.Name()), zap.Error(lastErr))
			continue
		}
		if err := b.Resize(ctx, asset, target); err != nil {
			lastErr = err
			p.log.Warn("thumbnail backend failed",
				zap.String("backend", b.Name()), zap.String("src", src), zap.Error(err))
			continue
		}
		if err := tx.commit(); err != nil {
			p.log.Warn("thumbnail backup cleanup", zap.Error(err))
		}
		p.log.Debug("thumbnail written",
			zap.String("backend", b.Name()), zap.String("thumb", thumb), zap.Stringer("size", size))
		return nil
	}
	return lastErr
}

// probe reads dimensions in process and falls back to the identify
// command of an installed backend for formats Go cannot decode.
func (p *Pipeline) probe(ctx context.Context, path string) (Dimensions, error) {
	d, err := Probe(path)
	if err == nil {
		return d, nil
	}
	for _, b := range p.backends {
		id, ok := b.(Identifier)
		if !ok || !b.Available() {
			continue
		}
		if d, idErr := id.Identify(ctx, path); idErr == nil {
			return d, nil
		}
	}
	return Dimensions{}, fmt.Errorf("%w: %v", apperrors.ErrUnsupportedType, err)
}

// resolve validates path against the character allowlist and confines it to
// the site directory. Relative paths are taken from the site directory.
func (p *Pipeline) resolve(path string) (string, error) {
	if !pathPattern.MatchString(path) {
		return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidPath, path)
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidPath, path)
		}
	}
	if p.gallery.SiteDir == "" {
		return filepath.Clean(path), nil
	}
	root := filepath.Clean(p.gallery.SiteDir)
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	path = filepath.Clean(path)
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: %q is outside the site directory", apperrors.ErrInvalidPath, path)
	}
	return path, nil
}

func checkReadable(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", apperrors.ErrFileNotFound, path)
	}
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", apperrors.ErrFileNotFound, path)
	}
	return nil
}

func checkWritableDir(dir string) error {
	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", apperrors.ErrDirNotWritable, dir, err)
	}
	name := probe.Name()
	probe.Close()
	return os.Remove(name)
}

func baseMIME(s string) string {
	mime, _, _ := strings.Cut(s, ";")
	return strings.TrimSpace(mime)
}
