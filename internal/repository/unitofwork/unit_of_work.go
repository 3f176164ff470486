package unitofwork

import (
	"context"

	"rag-knowledge-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	DocumentRepository() contract.DocumentRepository
	KnowledgeBaseRepository() contract.KnowledgeBaseRepository
	ModelConfigRepository() contract.ModelConfigRepository
}
