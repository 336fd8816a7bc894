package media

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	apperrors "photogallery/internal/errors"
)

var canonicalExtensions = map[string]string{
	"image/jpeg":                ".jpg",
	"image/png":                 ".png",
	"image/gif":                 ".gif",
	"image/webp":                ".webp",
	"image/tiff":                ".tiff",
	"image/bmp":                 ".bmp",
	"image/x-icon":              ".ico",
	"image/svg+xml":             ".svg",
	"image/avif":                ".avif",
	"image/heic":                ".heic",
	"image/heif":                ".heif",
	"image/vnd.adobe.photoshop": ".psd",
}

// CanonicalExtension returns the extension used for files of the given type.
func CanonicalExtension(mime string) (string, bool) {
	ext, ok := canonicalExtensions[mime]
	return ext, ok
}

// FixFileExtension renames the file at path so its extension matches its
// content and returns the resulting path.
func (p *Pipeline) FixFileExtension(path string) (string, error) {
	path, err := p.resolve(path)
	if err != nil {
		return "", err
	}
	if err := checkReadable(path); err != nil {
		return "", err
	}
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("detect type of %s: %w", path, err)
	}
	kind := baseMIME(mtype.String())
	want, ok := CanonicalExtension(kind)
	if !ok {
		return "", fmt.Errorf("%w: %s", apperrors.ErrUnsupportedType, kind)
	}

	ext := filepath.Ext(path)
	if strings.EqualFold(ext, want) {
		return path, nil
	}
	fixed := strings.TrimSuffix(path, ext) + want
	if _, err := os.Lstat(fixed); err == nil {
		return "", fmt.Errorf("rename %s: %s already exists", path, fixed)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	if err := os.Rename(path, fixed); err != nil {
		return "", fmt.Errorf("rename %s: %w", path, err)
	}
	return fixed, nil
}
