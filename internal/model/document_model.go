package model

import (
	"time"
)

type Document struct {
	Id           int64  `gorm:"primaryKey;autoIncrement"`
	Filename     string `gorm:"type:varchar(500);not null"`
	OriginalPath string `gorm:"type:varchar(1000);not null"`
	FileSize     int64  `gorm:"type:bigint"`
	FileType     string `gorm:"type:varchar(100)"`

	Status       string `gorm:"type:varchar(50);not null;default:'pending';index"`
	Progress     int    `gorm:"default:0"`
	ErrorMessage string `gorm:"type:text"`

	ParsedPath    string `gorm:"type:varchar(1000)"`
	TextCount     int    `gorm:"default:0"`
	ImageCount    int    `gorm:"default:0"`
	TableCount    int    `gorm:"default:0"`
	EquationCount int    `gorm:"default:0"`

	EntityCount   int `gorm:"default:0"`
	RelationCount int `gorm:"default:0"`

	TaskId string `gorm:"type:varchar(255)"`

	KnowledgeBaseId int64 `gorm:"not null;index"`
	UserId          int64 `gorm:"not null;index"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Document) TableName() string {
	return "documents"
}
