package model

import (
	"time"
)

type ModelConfig struct {
	Id         int64  `gorm:"primaryKey;autoIncrement"`
	Name       string `gorm:"type:varchar(255);not null"`
	ModelType  string `gorm:"type:varchar(50);not null;index"`
	Provider   string `gorm:"type:varchar(100);not null"`
	ModelName  string `gorm:"type:varchar(255);not null"`
	APIKey     string `gorm:"type:varchar(500)"`
	APIBaseURL string `gorm:"type:varchar(500)"`
	IsDefault  bool   `gorm:"default:false"`
	IsActive   bool   `gorm:"default:true"`
	UserId     int64  `gorm:"not null;index"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (ModelConfig) TableName() string {
	return "model_configs"
}
