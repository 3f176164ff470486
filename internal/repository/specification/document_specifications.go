package specification

import (
	"gorm.io/gorm"

	"rag-knowledge-be/internal/constant"
)

type ByKnowledgeBaseID struct {
	KnowledgeBaseID int64
}

func (s ByKnowledgeBaseID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("knowledge_base_id = ?", s.KnowledgeBaseID)
}

type ByStatus struct {
	Status constant.DocumentStatus
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", string(s.Status))
}
