package mapper

import (
	"time"

	"rag-knowledge-be/internal/entity"
	"rag-knowledge-be/internal/model"
)

type KnowledgeBaseMapper struct{}

func NewKnowledgeBaseMapper() *KnowledgeBaseMapper {
	return &KnowledgeBaseMapper{}
}

func (m *KnowledgeBaseMapper) ToEntity(kb *model.KnowledgeBase) *entity.KnowledgeBase {
	if kb == nil {
		return nil
	}

	var updatedAt *time.Time
	if !kb.UpdatedAt.IsZero() {
		t := kb.UpdatedAt
		updatedAt = &t
	}

	return &entity.KnowledgeBase{
		Id:                       kb.Id,
		Name:                     kb.Name,
		Description:              kb.Description,
		ParserType:               entity.ParserType(kb.ParserType),
		ParseMethod:              kb.ParseMethod,
		EnableImageProcessing:    kb.EnableImageProcessing,
		EnableTableProcessing:    kb.EnableTableProcessing,
		EnableEquationProcessing: kb.EnableEquationProcessing,
		LlmModelId:               kb.LlmModelId,
		VlmModelId:               kb.VlmModelId,
		EmbeddingModelId:         kb.EmbeddingModelId,
		WorkingDir:               kb.WorkingDir,
		VectorCollectionName:     kb.VectorCollectionName,
		IsActive:                 kb.IsActive,
		UserId:                   kb.UserId,
		CreatedAt:                kb.CreatedAt,
		UpdatedAt:                updatedAt,
	}
}

func (m *KnowledgeBaseMapper) ToModel(kb *entity.KnowledgeBase) *model.KnowledgeBase {
	if kb == nil {
		return nil
	}

	var updatedAt time.Time
	if kb.UpdatedAt != nil {
		updatedAt = *kb.UpdatedAt
	}

	return &model.KnowledgeBase{
		Id:                       kb.Id,
		Name:                     kb.Name,
		Description:              kb.Description,
		ParserType:               string(kb.ParserType),
		ParseMethod:              kb.ParseMethod,
		EnableImageProcessing:    kb.EnableImageProcessing,
		EnableTableProcessing:    kb.EnableTableProcessing,
		EnableEquationProcessing: kb.EnableEquationProcessing,
		LlmModelId:               kb.LlmModelId,
		VlmModelId:               kb.VlmModelId,
		EmbeddingModelId:         kb.EmbeddingModelId,
		WorkingDir:               kb.WorkingDir,
		VectorCollectionName:     kb.VectorCollectionName,
		IsActive:                 kb.IsActive,
		UserId:                   kb.UserId,
		CreatedAt:                kb.CreatedAt,
		UpdatedAt:                updatedAt,
	}
}

func (m *KnowledgeBaseMapper) ToEntities(kbs []*model.KnowledgeBase) []*entity.KnowledgeBase {
	entities := make([]*entity.KnowledgeBase, len(kbs))
	for i, kb := range kbs {
		entities[i] = m.ToEntity(kb)
	}
	return entities
}
