package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"rag-knowledge-be/internal/constant"
	"rag-knowledge-be/internal/dto"
	"rag-knowledge-be/internal/entity"
	"rag-knowledge-be/internal/pkg/logger"
	"rag-knowledge-be/internal/repository/specification"
	"rag-knowledge-be/internal/repository/unitofwork"
	"rag-knowledge-be/pkg/graph"
	"rag-knowledge-be/pkg/rag"

	"github.com/google/uuid"
)

type IDocumentService interface {
	Upload(ctx context.Context, userId int64, req *dto.UploadDocumentRequest, file *multipart.FileHeader) (*dto.UploadDocumentResponse, error)
	Show(ctx context.Context, userId int64, id int64) (*dto.DocumentResponse, error)
	List(ctx context.Context, userId int64, req *dto.ListDocumentsRequest) (*dto.ListDocumentsResponse, error)
	Progress(ctx context.Context, userId int64, id int64) (*dto.DocumentProgressResponse, error)
	Retry(ctx context.Context, userId int64, id int64) (*dto.RetryDocumentResponse, error)
	Delete(ctx context.Context, userId int64, id int64) (*dto.DeleteDocumentResponse, error)
}

type documentService struct {
	uowFactory unitofwork.RepositoryFactory
	publisher  IPublisherService
	store      *graph.Store
	cleanup    *rag.CleanupService
	uploadDir  string
	log        logger.ILogger
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	publisher IPublisherService,
	store *graph.Store,
	cleanup *rag.CleanupService,
	uploadDir string,
	log logger.ILogger,
) IDocumentService {
	return &documentService{
		uowFactory: uowFactory,
		publisher:  publisher,
		store:      store,
		cleanup:    cleanup,
		uploadDir:  uploadDir,
		log:        log,
	}
}

func (s *documentService) Upload(ctx context.Context, userId int64, req *dto.UploadDocumentRequest, file *multipart.FileHeader) (*dto.UploadDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	kb, err := uow.KnowledgeBaseRepository().FindOne(ctx,
		specification.ByID{ID: req.KnowledgeBaseId},
		specification.ByUserID{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if kb == nil {
		return nil, fmt.Errorf("knowledge base %d not found", req.KnowledgeBaseId)
	}

	storagePath, size, err := s.saveUpload(file, req.KnowledgeBaseId)
	if err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}

	taskId := uuid.NewString()
	doc := &entity.Document{
		Filename:        file.Filename,
		OriginalPath:    storagePath,
		FileSize:        size,
		FileType:        strings.TrimPrefix(filepath.Ext(file.Filename), "."),
		Status:          constant.DocumentStatusPending,
		Progress:        0,
		TaskId:          taskId,
		KnowledgeBaseId: req.KnowledgeBaseId,
		UserId:          userId,
	}
	if err := uow.DocumentRepository().Create(ctx, doc); err != nil {
		os.Remove(storagePath)
		return nil, err
	}

	task := dto.ProcessTask{
		DocumentId:      doc.Id,
		KnowledgeBaseId: req.KnowledgeBaseId,
		FilePath:        storagePath,
		TaskId:          taskId,
		Overrides: dto.ModelOverrides{
			LlmModelId:       req.LlmModelId,
			VlmModelId:       req.VlmModelId,
			EmbeddingModelId: req.EmbeddingModelId,
		},
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return nil, err
	}
	if err := s.publisher.Publish(ctx, payload); err != nil {
		return nil, fmt.Errorf("schedule processing: %w", err)
	}

	s.log.Info("document", "Document uploaded and scheduled", map[string]interface{}{
		"document_id": doc.Id,
		"kb_id":       req.KnowledgeBaseId,
		"filename":    file.Filename,
		"task_id":     taskId,
	})

	return &dto.UploadDocumentResponse{
		Id:       doc.Id,
		TaskId:   taskId,
		Filename: file.Filename,
		Status:   string(doc.Status),
	}, nil
}

func (s *documentService) saveUpload(file *multipart.FileHeader, kbID int64) (string, int64, error) {
	dir := filepath.Join(s.uploadDir, fmt.Sprintf("kb_%d", kbID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, err
	}

	dst := filepath.Join(dir, file.Filename)
	if _, err := os.Stat(dst); err == nil {
		// Same filename uploaded twice; keep both.
		dst = filepath.Join(dir, uuid.NewString()[:8]+"_"+file.Filename)
	}

	src, err := file.Open()
	if err != nil {
		return "", 0, err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", 0, err
	}
	defer out.Close()

	size, err := io.Copy(out, src)
	if err != nil {
		os.Remove(dst)
		return "", 0, err
	}
	return dst, size, nil
}

func (s *documentService) Show(ctx context.Context, userId int64, id int64) (*dto.DocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.ByUserID{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return toDocumentResponse(doc), nil
}

func (s *documentService) List(ctx context.Context, userId int64, req *dto.ListDocumentsRequest) (*dto.ListDocumentsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	specs := []specification.Specification{
		specification.ByUserID{UserID: userId},
	}
	if req.KnowledgeBaseId != 0 {
		specs = append(specs, specification.ByKnowledgeBaseID{KnowledgeBaseID: req.KnowledgeBaseId})
	}
	if req.Status != "" {
		specs = append(specs, specification.ByStatus{Status: constant.DocumentStatus(req.Status)})
	}

	total, err := uow.DocumentRepository().Count(ctx, specs...)
	if err != nil {
		return nil, err
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	listSpecs := append(specs,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Offset: (page - 1) * pageSize, Limit: pageSize},
	)
	docs, err := uow.DocumentRepository().FindAll(ctx, listSpecs...)
	if err != nil {
		return nil, err
	}

	out := make([]dto.DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, *toDocumentResponse(doc))
	}
	return &dto.ListDocumentsResponse{
		Documents: out,
		Total:     total,
		Page:      page,
		PageSize:  pageSize,
	}, nil
}

func (s *documentService) Progress(ctx context.Context, userId int64, id int64) (*dto.DocumentProgressResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.ByUserID{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return &dto.DocumentProgressResponse{
		Id:           doc.Id,
		Status:       doc.Status,
		Progress:     doc.Progress,
		ErrorMessage: doc.ErrorMessage,
	}, nil
}

// Retry resets a document and schedules a new processing run.
// Reprocessing is idempotent in effect: graph identity is upsert-keyed,
// so a second run overwrites rather than duplicates.
func (s *documentService) Retry(ctx context.Context, userId int64, id int64) (*dto.RetryDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.ByUserID{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}

	doc.Status = constant.DocumentStatusPending
	doc.Progress = 0
	doc.ErrorMessage = ""
	doc.TaskId = uuid.NewString()
	if err := uow.DocumentRepository().Update(ctx, doc); err != nil {
		return nil, err
	}

	task := dto.ProcessTask{
		DocumentId:      doc.Id,
		KnowledgeBaseId: doc.KnowledgeBaseId,
		FilePath:        doc.OriginalPath,
		TaskId:          doc.TaskId,
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return nil, err
	}
	if err := s.publisher.Publish(ctx, payload); err != nil {
		return nil, fmt.Errorf("schedule processing: %w", err)
	}

	return &dto.RetryDocumentResponse{
		Id:     doc.Id,
		TaskId: doc.TaskId,
		Status: string(doc.Status),
	}, nil
}

// Delete cascades: graph records scoped to (kb, path), on-disk engine
// records under the same key, the uploaded file, then the row itself.
func (s *documentService) Delete(ctx context.Context, userId int64, id int64) (*dto.DeleteDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.ByUserID{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}

	deleted, err := s.store.DeleteDocumentEntities(ctx, doc.KnowledgeBaseId, doc.OriginalPath)
	if err != nil {
		s.log.Error("document", "Graph deletion failed, continuing with cascade", map[string]interface{}{
			"document_id": id,
			"error":       err.Error(),
		})
	}

	cleanupResult := s.cleanup.RemoveDocumentRecords(doc.KnowledgeBaseId, doc.OriginalPath)

	if err := os.Remove(doc.OriginalPath); err != nil && !os.IsNotExist(err) {
		s.log.Warn("document", "Failed to remove uploaded file", map[string]interface{}{
			"document_id": id,
			"path":        doc.OriginalPath,
			"error":       err.Error(),
		})
	}

	if err := uow.DocumentRepository().Delete(ctx, id); err != nil {
		return nil, err
	}

	return &dto.DeleteDocumentResponse{
		Id:              id,
		EntitiesRemoved: deleted.EntitiesRemoved + deleted.OrphansRemoved,
		FilesRemoved:    cleanupResult.FilesModified + cleanupResult.FilesDeleted,
	}, nil
}

func toDocumentResponse(doc *entity.Document) *dto.DocumentResponse {
	return &dto.DocumentResponse{
		Id:              doc.Id,
		Filename:        doc.Filename,
		FileSize:        doc.FileSize,
		FileType:        doc.FileType,
		Status:          doc.Status,
		Progress:        doc.Progress,
		ErrorMessage:    doc.ErrorMessage,
		TextCount:       doc.TextCount,
		ImageCount:      doc.ImageCount,
		TableCount:      doc.TableCount,
		EquationCount:   doc.EquationCount,
		EntityCount:     doc.EntityCount,
		RelationCount:   doc.RelationCount,
		TaskId:          doc.TaskId,
		KnowledgeBaseId: doc.KnowledgeBaseId,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}
}
