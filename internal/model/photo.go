package model

import "time"

// PersonalCategory marks photos uploaded outside any album.
const PersonalCategory uint = 0

// Photo is an uploaded image; File is relative to the gallery and thumbnail folders.
type Photo struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	File        string    `json:"file" gorm:"size:255;not null"`
	Name        string    `json:"name" gorm:"size:255"`
	Description string    `json:"description" gorm:"type:text"`
	Category    uint      `json:"category" gorm:"index"`
	UserUpload  uint      `json:"user_upload" gorm:"index"`
	CreatedAt   time.Time `json:"created_at"`
}
