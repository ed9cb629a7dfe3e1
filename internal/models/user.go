package models

import "time"

// User is an application account stored in the users table.
type User struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Email     string     `gorm:"uniqueIndex;not null" json:"email"`
	Password  string     `gorm:"not null" json:"-"` // bcrypt hash
	Name      string     `gorm:"not null" json:"name"`
	Birthday  *time.Time `json:"birthday"`
	Marketing bool       `gorm:"not null;default:false" json:"marketing"`
	Push      bool       `gorm:"not null;default:false" json:"push"`
	Notice    bool       `gorm:"not null;default:false" json:"notice"`
	Token     *string    `json:"token"`
	FCM       *string    `gorm:"column:fcm" json:"fcm"` // push device token
	Img       *string    `json:"img"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// DeviceToken returns the registered push token, or "" when none is set.
func (u *User) DeviceToken() string {
	if u == nil || u.FCM == nil {
		return ""
	}
	return *u.FCM
}
