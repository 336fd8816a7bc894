// Package media implements thumbnail generation and the file-level helpers
// of the gallery: probing, resizing through a chain of backends, streaming
// images over HTTP, extension repair and category directories.
package media

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxSourceDimension is the largest width or height accepted for resizing.
const MaxSourceDimension = 5000

// Dimensions is a width and height in pixels.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// Asset is a source image handed to a backend.
type Asset struct {
	Path string
	MIME string
	Size Dimensions
}

// Target is the thumbnail a backend has to produce.
type Target struct {
	Path   string
	Size   Dimensions
	Exists bool
}

// ComputeThumbnailSize fits actual into the target box. Images smaller than
// the box on both axes are returned unchanged; otherwise the axis with the
// larger overflow is set to the box and the other one scaled and truncated.
func ComputeThumbnailSize(actual, target Dimensions) Dimensions {
	if target.Width <= 0 || target.Height <= 0 || actual.Width <= 0 || actual.Height <= 0 {
		return actual
	}
	if actual.Width < target.Width && actual.Height < target.Height {
		return actual
	}
	aw, ah := int64(actual.Width), int64(actual.Height)
	tw, th := int64(target.Width), int64(target.Height)
	var out Dimensions
	if aw*th >= ah*tw {
		out = Dimensions{Width: target.Width, Height: int(ah * tw / aw)}
	} else {
		out = Dimensions{Width: int(aw * th / ah), Height: target.Height}
	}
	if out.Width < 1 {
		out.Width = 1
	}
	if out.Height < 1 {
		out.Height = 1
	}
	return out
}

// Probe reads the pixel dimensions of an image file without decoding it.
func Probe(path string) (Dimensions, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dimensions{}, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return Dimensions{}, fmt.Errorf("probe %s: %w", path, err)
	}
	return Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}

// fitsMemory reports whether an RGB buffer of d stays within a quarter of limit.
func fitsMemory(d Dimensions, limit int64) bool {
	if limit <= 0 {
		return true
	}
	return int64(d.Width)*int64(d.Height)*3 <= limit/4
}
