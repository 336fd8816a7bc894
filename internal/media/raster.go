package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// RasterBackend resizes in process with imaging. It has no external
// requirements and closes the chain.
type RasterBackend struct {
	quality int
}

// NewRasterBackend returns the built-in backend.
func NewRasterBackend() *RasterBackend {
	return &RasterBackend{quality: 90}
}

func (b *RasterBackend) Name() string { return "raster" }

func (b *RasterBackend) Available() bool { return true }

func (b *RasterBackend) Supports(mime string) bool {
	return rasterFormats.has(mime)
}

func (b *RasterBackend) Resize(ctx context.Context, src Asset, dst Target) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	toWebP := false
	format, err := imaging.FormatFromFilename(dst.Path)
	if err != nil {
		if toWebP = isWebP(dst.Path, src.MIME); !toWebP {
			format, err = formatFromMIME(src.MIME)
			if err != nil {
				return err
			}
		}
	}

	img, err := imaging.Open(src.Path, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("raster: decode %s: %w", src.Path, err)
	}
	thumb := imaging.Resize(img, dst.Size.Width, dst.Size.Height, imaging.Lanczos)

	f, err := os.Create(dst.Path)
	if err != nil {
		return fmt.Errorf("raster: %w", err)
	}
	if toWebP {
		err = webp.Encode(f, thumb, &webp.Options{Quality: float32(b.quality)})
	} else {
		err = imaging.Encode(f, thumb, format, imaging.JPEGQuality(b.quality))
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("raster: encode %s: %w", dst.Path, err)
	}
	return f.Close()
}

// isWebP reports whether the thumbnail is written as WebP. imaging has no
// WebP encoder, so these files go through libwebp instead.
func isWebP(path, mime string) bool {
	return strings.EqualFold(filepath.Ext(path), ".webp") || mime == "image/webp"
}

func formatFromMIME(mime string) (imaging.Format, error) {
	switch strings.TrimPrefix(mime, "image/") {
	case "jpeg":
		return imaging.JPEG, nil
	case "png":
		return imaging.PNG, nil
	case "gif":
		return imaging.GIF, nil
	case "bmp":
		return imaging.BMP, nil
	case "tiff":
		return imaging.TIFF, nil
	}
	return 0, fmt.Errorf("raster: no encoder for %s", mime)
}
