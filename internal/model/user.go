package model

import "time"

// User is one gallery account. Rows are never physically removed: hard
// deletion anonymizes them in place.
type User struct {
	ID                 uint       `json:"id" gorm:"primaryKey"`
	Login              string     `json:"login" gorm:"size:32;not null;uniqueIndex"`
	Password           string     `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Email              string     `json:"email" gorm:"size:255;not null;uniqueIndex"`
	RealName           string     `json:"real_name" gorm:"size:255;not null;uniqueIndex"`
	RegDate            time.Time  `json:"reg_date"`
	LastActivity       time.Time  `json:"date_last_activ" gorm:"column:date_last_activ"`
	Avatar             string     `json:"avatar" gorm:"size:255"`
	Language           string     `json:"language" gorm:"size:16"`
	Theme              string     `json:"theme" gorm:"size:32"`
	Timezone           string     `json:"timezone" gorm:"size:64"`
	GroupID            uint       `json:"group_id" gorm:"index;not null"`
	UserRights         string     `json:"-" gorm:"column:user_rights;type:text"`
	DeletedAt          *time.Time `json:"deleted_at,omitempty" gorm:"index"`
	PermanentlyDeleted bool       `json:"permanently_deleted" gorm:"default:false;index"`
}

// IsSoftDeleted reports whether the account sits in its restore window or past it.
func (u *User) IsSoftDeleted() bool {
	return u.DeletedAt != nil && !u.PermanentlyDeleted
}

// RetentionExpired reports whether the soft-delete grace window has elapsed at now.
func (u *User) RetentionExpired(now time.Time, retention time.Duration) bool {
	return u.DeletedAt != nil && now.Sub(*u.DeletedAt) > retention
}
