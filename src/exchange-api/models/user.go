package models

import "gorm.io/gorm"

type User struct {
	gorm.Model
	Username string `gorm:"column:username;type:text;not null;uniqueIndex:idx_user_username"`
	Email    string `gorm:"column:email;type:text"`
}
