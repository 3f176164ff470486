package model

import (
	"time"
)

type KnowledgeBase struct {
	Id          int64  `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:text"`

	ParserType               string `gorm:"type:varchar(50);not null;default:'mineru'"`
	ParseMethod              string `gorm:"type:varchar(50);default:'auto'"`
	EnableImageProcessing    bool   `gorm:"default:true"`
	EnableTableProcessing    bool   `gorm:"default:true"`
	EnableEquationProcessing bool   `gorm:"default:true"`

	LlmModelId       *int64
	VlmModelId       *int64
	EmbeddingModelId *int64

	WorkingDir           string `gorm:"type:varchar(500)"`
	VectorCollectionName string `gorm:"type:varchar(255)"`

	IsActive bool  `gorm:"default:true"`
	UserId   int64 `gorm:"not null;index"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (KnowledgeBase) TableName() string {
	return "knowledge_bases"
}
