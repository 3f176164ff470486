package specification

import (
	"gorm.io/gorm"

	"rag-knowledge-be/internal/entity"
)

type ByModelType struct {
	ModelType entity.ModelType
}

func (s ByModelType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("model_type = ?", string(s.ModelType))
}

type OnlyActive struct{}

func (s OnlyActive) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true)
}

type OnlyDefault struct{}

func (s OnlyDefault) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_default = ?", true)
}
