package contract

import (
	"context"

	"rag-knowledge-be/internal/entity"
	"rag-knowledge-be/internal/repository/specification"
)

type KnowledgeBaseRepository interface {
	Create(ctx context.Context, kb *entity.KnowledgeBase) error
	Update(ctx context.Context, kb *entity.KnowledgeBase) error
	Delete(ctx context.Context, id int64) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KnowledgeBase, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeBase, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
