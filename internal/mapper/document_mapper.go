package mapper

import (
	"time"

	"rag-knowledge-be/internal/constant"
	"rag-knowledge-be/internal/entity"
	"rag-knowledge-be/internal/model"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d *model.Document) *entity.Document {
	if d == nil {
		return nil
	}

	var updatedAt *time.Time
	if !d.UpdatedAt.IsZero() {
		t := d.UpdatedAt
		updatedAt = &t
	}

	return &entity.Document{
		Id:              d.Id,
		Filename:        d.Filename,
		OriginalPath:    d.OriginalPath,
		FileSize:        d.FileSize,
		FileType:        d.FileType,
		Status:          constant.DocumentStatus(d.Status),
		Progress:        d.Progress,
		ErrorMessage:    d.ErrorMessage,
		ParsedPath:      d.ParsedPath,
		TextCount:       d.TextCount,
		ImageCount:      d.ImageCount,
		TableCount:      d.TableCount,
		EquationCount:   d.EquationCount,
		EntityCount:     d.EntityCount,
		RelationCount:   d.RelationCount,
		TaskId:          d.TaskId,
		KnowledgeBaseId: d.KnowledgeBaseId,
		UserId:          d.UserId,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       updatedAt,
	}
}

func (m *DocumentMapper) ToModel(d *entity.Document) *model.Document {
	if d == nil {
		return nil
	}

	var updatedAt time.Time
	if d.UpdatedAt != nil {
		updatedAt = *d.UpdatedAt
	}

	return &model.Document{
		Id:              d.Id,
		Filename:        d.Filename,
		OriginalPath:    d.OriginalPath,
		FileSize:        d.FileSize,
		FileType:        d.FileType,
		Status:          string(d.Status),
		Progress:        d.Progress,
		ErrorMessage:    d.ErrorMessage,
		ParsedPath:      d.ParsedPath,
		TextCount:       d.TextCount,
		ImageCount:      d.ImageCount,
		TableCount:      d.TableCount,
		EquationCount:   d.EquationCount,
		EntityCount:     d.EntityCount,
		RelationCount:   d.RelationCount,
		TaskId:          d.TaskId,
		KnowledgeBaseId: d.KnowledgeBaseId,
		UserId:          d.UserId,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       updatedAt,
	}
}

func (m *DocumentMapper) ToEntities(docs []*model.Document) []*entity.Document {
	entities := make([]*entity.Document, len(docs))
	for i, d := range docs {
		entities[i] = m.ToEntity(d)
	}
	return entities
}
