package media

import (
	"context"
	"slices"
)

// Backend is one image library able to produce thumbnails.
type Backend interface {
	Name() string
	// Available reports whether the library can run on this host.
	Available() bool
	// Supports reports whether the source MIME type can be read.
	Supports(mime string) bool
	Resize(ctx context.Context, src Asset, dst Target) error
}

// DefaultBackends is the preferred chain: GraphicsMagick, ImageMagick, then
// the built-in raster resizer.
func DefaultBackends() []Backend {
	return []Backend{NewGraphicsMagick(), NewImageMagick(), NewRasterBackend()}
}

type formatSet []string

func (f formatSet) has(mime string) bool {
	return slices.Contains(f, mime)
}

var (
	commonFormats = formatSet{
		"image/jpeg",
		"image/png",
		"image/gif",
		"image/webp",
		"image/tiff",
		"image/bmp",
		"image/x-icon",
		"image/svg+xml",
	}

	graphicsMagickFormats = append(slices.Clone(commonFormats),
		"image/vnd.adobe.photoshop",
		"image/x-portable-pixmap",
		"image/x-portable-graymap",
		"image/x-portable-bitmap",
	)

	imageMagickFormats = append(slices.Clone(graphicsMagickFormats),
		"image/avif",
		"image/heic",
		"image/heif",
		"image/x-canon-cr2",
		"image/x-nikon-nef",
		"image/x-sony-arw",
		"image/x-adobe-dng",
	)

	rasterFormats = formatSet{
		"image/jpeg",
		"image/png",
		"image/gif",
		"image/bmp",
		"image/tiff",
		"image/webp",
	}
)
