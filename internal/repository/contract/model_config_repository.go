package contract

import (
	"context"

	"rag-knowledge-be/internal/entity"
	"rag-knowledge-be/internal/repository/specification"
)

type ModelConfigRepository interface {
	Create(ctx context.Context, mc *entity.ModelConfig) error
	Update(ctx context.Context, mc *entity.ModelConfig) error
	Delete(ctx context.Context, id int64) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ModelConfig, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ModelConfig, error)
}
