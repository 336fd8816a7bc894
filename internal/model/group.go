package model

// Group bundles default permission flags for its members.
type Group struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	Name       string `json:"name" gorm:"size:64;not null"`
	UserRights string `json:"-" gorm:"column:user_rights;type:text"`
}
