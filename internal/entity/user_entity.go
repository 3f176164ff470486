package entity

import "time"

type User struct {
	Id           int64
	Email        string
	PasswordHash *string
	FullName     string
	IsActive     bool
	IsSuperuser  bool
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}
