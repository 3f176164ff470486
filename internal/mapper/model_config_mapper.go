package mapper

import (
	"time"

	"rag-knowledge-be/internal/entity"
	"rag-knowledge-be/internal/model"
)

type ModelConfigMapper struct{}

func NewModelConfigMapper() *ModelConfigMapper {
	return &ModelConfigMapper{}
}

func (m *ModelConfigMapper) ToEntity(mc *model.ModelConfig) *entity.ModelConfig {
	if mc == nil {
		return nil
	}

	var updatedAt *time.Time
	if !mc.UpdatedAt.IsZero() {
		t := mc.UpdatedAt
		updatedAt = &t
	}

	return &entity.ModelConfig{
		Id:         mc.Id,
		Name:       mc.Name,
		ModelType:  entity.ModelType(mc.ModelType),
		Provider:   mc.Provider,
		ModelName:  mc.ModelName,
		APIKey:     mc.APIKey,
		APIBaseURL: mc.APIBaseURL,
		IsDefault:  mc.IsDefault,
		IsActive:   mc.IsActive,
		UserId:     mc.UserId,
		CreatedAt:  mc.CreatedAt,
		UpdatedAt:  updatedAt,
	}
}

func (m *ModelConfigMapper) ToModel(mc *entity.ModelConfig) *model.ModelConfig {
	if mc == nil {
		return nil
	}

	var updatedAt time.Time
	if mc.UpdatedAt != nil {
		updatedAt = *mc.UpdatedAt
	}

	return &model.ModelConfig{
		Id:         mc.Id,
		Name:       mc.Name,
		ModelType:  string(mc.ModelType),
		Provider:   mc.Provider,
		ModelName:  mc.ModelName,
		APIKey:     mc.APIKey,
		APIBaseURL: mc.APIBaseURL,
		IsDefault:  mc.IsDefault,
		IsActive:   mc.IsActive,
		UserId:     mc.UserId,
		CreatedAt:  mc.CreatedAt,
		UpdatedAt:  updatedAt,
	}
}

func (m *ModelConfigMapper) ToEntities(mcs []*model.ModelConfig) []*entity.ModelConfig {
	entities := make([]*entity.ModelConfig, len(mcs))
	for i, mc := range mcs {
		entities[i] = m.ToEntity(mc)
	}
	return entities
}
