package contract

import (
	"context"

	"rag-knowledge-be/internal/constant"
	"rag-knowledge-be/internal/entity"
	"rag-knowledge-be/internal/repository/specification"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	Update(ctx context.Context, doc *entity.Document) error
	Delete(ctx context.Context, id int64) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// UpdateProgress writes progress/status (and optionally an error message)
	// without touching the rest of the row. Used by the processing callback.
	UpdateProgress(ctx context.Context, id int64, progress int, status constant.DocumentStatus, message string) error

	// DistinctKnowledgeBaseIDs returns the set of knowledge-base ids referenced
	// by at least one document row. Consumed by the consistency monitor.
	DistinctKnowledgeBaseIDs(ctx context.Context) ([]int64, error)

	// StatusDistribution returns a status -> count map for one knowledge base.
	StatusDistribution(ctx context.Context, kbID int64) (map[constant.DocumentStatus]int64, error)
}
