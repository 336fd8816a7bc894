package media

import (
	"github.com/shopspring/decimal"

	"photogallery/internal/config"
	"photogallery/internal/model"
)

// Placeholder describes the image shown where no photo exists.
type Placeholder struct {
	ID           uint            `json:"id"`
	URL          string          `json:"url"`
	ThumbnailURL string          `json:"thumbnail_url"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Category     uint            `json:"category"`
	CategoryName string          `json:"category_name"`
	Width        int             `json:"width"`
	Height       int             `json:"height"`
	RateUser     decimal.Decimal `json:"rate_user"`
	RateModer    decimal.Decimal `json:"rate_moder"`
}

// NoPhoto returns the placeholder descriptor for the site.
func NoPhoto(g config.Gallery) Placeholder {
	return Placeholder{
		URL:          g.SiteURL + g.GalleryFolder + "/" + g.NoPhotoFile,
		ThumbnailURL: g.SiteURL + g.ThumbnailFolder + "/" + g.NoPhotoFile,
		Name:         "No photo",
		Description:  "No photo available",
		Category:     model.PersonalCategory,
		CategoryName: "No category",
		Width:        g.TempPhotoW,
		Height:       g.TempPhotoH,
		RateUser:     decimal.Zero,
		RateModer:    decimal.Zero,
	}
}
