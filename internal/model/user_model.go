package model

import (
	"time"
)

type User struct {
	Id           int64   `gorm:"primaryKey;autoIncrement"`
	Email        string  `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash *string `gorm:"type:varchar(255)"`
	FullName     string  `gorm:"type:varchar(255)"`
	IsActive     bool    `gorm:"default:true"`
	IsSuperuser  bool    `gorm:"default:false"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
