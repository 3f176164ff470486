package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"rag-knowledge-be/internal/dto"
	"rag-knowledge-be/internal/entity"
	"rag-knowledge-be/internal/pkg/logger"
	"rag-knowledge-be/internal/repository/specification"
	"rag-knowledge-be/internal/repository/unitofwork"
	"rag-knowledge-be/pkg/graph"
)

type IKnowledgeBaseService interface {
	Create(ctx context.Context, userId int64, req *dto.CreateKnowledgeBaseRequest) (*dto.KnowledgeBaseResponse, error)
	Update(ctx context.Context, userId int64, req *dto.UpdateKnowledgeBaseRequest) (*dto.KnowledgeBaseResponse, error)
	Show(ctx context.Context, userId int64, id int64) (*dto.KnowledgeBaseResponse, error)
	List(ctx context.Context, userId int64) ([]dto.KnowledgeBaseResponse, error)
	Delete(ctx context.Context, userId int64, id int64) (*dto.DeleteKnowledgeBaseResponse, error)
}

type knowledgeBaseService struct {
	uowFactory unitofwork.RepositoryFactory
	store      *graph.Store
	vectorDir  string
	uploadDir  string
	log        logger.ILogger
}

func NewKnowledgeBaseService(
	uowFactory unitofwork.RepositoryFactory,
	store *graph.Store,
	vectorDir string,
	uploadDir string,
	log logger.ILogger,
) IKnowledgeBaseService {
	return &knowledgeBaseService{
		uowFactory: uowFactory,
		store:      store,
		vectorDir:  vectorDir,
		uploadDir:  uploadDir,
		log:        log,
	}
}

func (s *knowledgeBaseService) Create(ctx context.Context, userId int64, req *dto.CreateKnowledgeBaseRequest) (*dto.KnowledgeBaseResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	kb := &entity.KnowledgeBase{
		Name:                     req.Name,
		Description:              req.Description,
		ParserType:               entity.ParserMineru,
		ParseMethod:              "auto",
		EnableImageProcessing:    true,
		EnableTableProcessing:    true,
		EnableEquationProcessing: true,
		LlmModelId:               req.LlmModelId,
		VlmModelId:               req.VlmModelId,
		EmbeddingModelId:         req.EmbeddingModelId,
		IsActive:                 true,
		UserId:                   userId,
	}
	if req.ParserType != "" {
		kb.ParserType = entity.ParserType(req.ParserType)
	}
	if req.ParseMethod != "" {
		kb.ParseMethod = req.ParseMethod
	}
	if req.EnableImage != nil {
		kb.EnableImageProcessing = *req.EnableImage
	}
	if req.EnableTable != nil {
		kb.EnableTableProcessing = *req.EnableTable
	}
	if req.EnableEquation != nil {
		kb.EnableEquationProcessing = *req.EnableEquation
	}

	if err := uow.KnowledgeBaseRepository().Create(ctx, kb); err != nil {
		return nil, err
	}

	// Storage identity is derived from the row id and never changes after
	// this point, even if the knowledge base is renamed.
	kb.WorkingDir = filepath.Join(s.vectorDir, fmt.Sprintf("kb_%d", kb.Id))
	kb.VectorCollectionName = fmt.Sprintf("kb_%d_vectors", kb.Id)
	if err := uow.KnowledgeBaseRepository().Update(ctx, kb); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(kb.WorkingDir, 0o755); err != nil {
		s.log.Warn("knowledge_base", "Failed to pre-create working directory", map[string]interface{}{
			"kb_id": kb.Id,
			"path":  kb.WorkingDir,
			"error": err.Error(),
		})
	}

	s.log.Info("knowledge_base", "Knowledge base created", map[string]interface{}{
		"kb_id": kb.Id,
		"name":  kb.Name,
	})
	return s.toResponse(ctx, kb)
}

func (s *knowledgeBaseService) Update(ctx context.Context, userId int64, req *dto.UpdateKnowledgeBaseRequest) (*dto.KnowledgeBaseResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	kb, err := uow.KnowledgeBaseRepository().FindOne(ctx,
		specification.ByID{ID: req.Id},
		specification.ByUserID{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if kb == nil {
		return nil, nil
	}

	kb.Name = req.Name
	kb.Description = req.Description
	if req.ParserType != "" {
		kb.ParserType = entity.ParserType(req.ParserType)
	}
	if req.ParseMethod != "" {
		kb.ParseMethod = req.ParseMethod
	}
	if req.EnableImage != nil {
		kb.EnableImageProcessing = *req.EnableImage
	}
	if req.EnableTable != nil {
		kb.EnableTableProcessing = *req.EnableTable
	}
	if req.EnableEquation != nil {
		kb.EnableEquationProcessing = *req.EnableEquation
	}
	kb.LlmModelId = req.LlmModelId
	kb.VlmModelId = req.VlmModelId
	kb.EmbeddingModelId = req.EmbeddingModelId

	if err := uow.KnowledgeBaseRepository().Update(ctx, kb); err != nil {
		return nil, err
	}
	return s.toResponse(ctx, kb)
}

func (s *knowledgeBaseService) Show(ctx context.Context, userId int64, id int64) (*dto.KnowledgeBaseResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	kb, err := uow.KnowledgeBaseRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.ByUserID{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if kb == nil {
		return nil, nil
	}
	return s.toResponse(ctx, kb)
}

func (s *knowledgeBaseService) List(ctx context.Context, userId int64) ([]dto.KnowledgeBaseResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	kbs, err := uow.KnowledgeBaseRepository().FindAll(ctx,
		specification.ByUserID{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	out := make([]dto.KnowledgeBaseResponse, 0, len(kbs))
	for _, kb := range kbs {
		resp, err := s.toResponse(ctx, kb)
		if err != nil {
			return nil, err
		}
		out = append(out, *resp)
	}
	return out, nil
}

// Delete removes the knowledge base and everything hanging off it: document
// rows, uploaded files, graph data and on-disk engine storage. Graph and
// storage deletion are separate systems, so a crash in between can leave
// partial state; the consistency monitor picks those up.
func (s *knowledgeBaseService) Delete(ctx context.Context, userId int64, id int64) (*dto.DeleteKnowledgeBaseResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	kb, err := uow.KnowledgeBaseRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.ByUserID{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if kb == nil {
		return nil, nil
	}

	docs, err := uow.DocumentRepository().FindAll(ctx,
		specification.ByKnowledgeBaseID{KnowledgeBaseID: id},
	)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if err := uow.DocumentRepository().Delete(ctx, doc.Id); err != nil {
			return nil, err
		}
	}

	if err := uow.KnowledgeBaseRepository().Delete(ctx, id); err != nil {
		return nil, err
	}

	if err := s.store.DeleteKBGraph(ctx, id); err != nil {
		s.log.Error("knowledge_base", "Graph deletion failed during cascade", map[string]interface{}{
			"kb_id": id,
			"error": err.Error(),
		})
	}

	uploads := filepath.Join(s.uploadDir, fmt.Sprintf("kb_%d", id))
	if err := os.RemoveAll(uploads); err != nil {
		s.log.Warn("knowledge_base", "Failed to remove upload directory", map[string]interface{}{
			"kb_id": id,
			"path":  uploads,
			"error": err.Error(),
		})
	}

	s.log.Info("knowledge_base", "Knowledge base deleted", map[string]interface{}{
		"kb_id":             id,
		"documents_removed": len(docs),
	})
	return &dto.DeleteKnowledgeBaseResponse{
		Id:               id,
		DocumentsRemoved: int64(len(docs)),
	}, nil
}

func (s *knowledgeBaseService) toResponse(ctx context.Context, kb *entity.KnowledgeBase) (*dto.KnowledgeBaseResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	docCount, err := uow.DocumentRepository().Count(ctx,
		specification.ByKnowledgeBaseID{KnowledgeBaseID: kb.Id},
	)
	if err != nil {
		return nil, err
	}
	return &dto.KnowledgeBaseResponse{
		Id:                   kb.Id,
		Name:                 kb.Name,
		Description:          kb.Description,
		ParserType:           kb.ParserType,
		ParseMethod:          kb.ParseMethod,
		EnableImage:          kb.EnableImageProcessing,
		EnableTable:          kb.EnableTableProcessing,
		EnableEquation:       kb.EnableEquationProcessing,
		LlmModelId:           kb.LlmModelId,
		VlmModelId:           kb.VlmModelId,
		EmbeddingModelId:     kb.EmbeddingModelId,
		WorkingDir:           kb.WorkingDir,
		VectorCollectionName: kb.VectorCollectionName,
		DocumentCount:        docCount,
		CreatedAt:            kb.CreatedAt,
		UpdatedAt:            kb.UpdatedAt,
	}, nil
}
