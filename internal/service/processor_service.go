package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"rag-knowledge-be/internal/config"
	"rag-knowledge-be/internal/dto"
	"rag-knowledge-be/internal/entity"
	"rag-knowledge-be/internal/pkg/logger"
	"rag-knowledge-be/internal/repository/specification"
	"rag-knowledge-be/internal/repository/unitofwork"
	"rag-knowledge-be/pkg/graph"
	"rag-knowledge-be/pkg/llm/factory"
	"rag-knowledge-be/pkg/rag"
)

// ProgressFunc receives phase progress during a processing run. The
// worker supplies an implementation that writes the document row and
// broadcasts the update.
type ProgressFunc func(ctx context.Context, progress int, message string)

type IProcessorService interface {
	// Process drives a full parse, extract and graph-build run for one
	// document. It never returns an error: every failure is folded into
	// the result with Success=false.
	Process(ctx context.Context, task *dto.ProcessTask, onProgress ProgressFunc) *dto.ProcessResult
}

type processorService struct {
	uowFactory    unitofwork.RepositoryFactory
	engineFactory rag.Factory
	store         *graph.Store
	extractor     *graph.Extractor
	cfg           *config.Config
	log           logger.ILogger
}

func NewProcessorService(
	uowFactory unitofwork.RepositoryFactory,
	engineFactory rag.Factory,
	store *graph.Store,
	cfg *config.Config,
	log logger.ILogger,
) IProcessorService {
	return &processorService{
		uowFactory:    uowFactory,
		engineFactory: engineFactory,
		store:         store,
		extractor:     graph.NewExtractor(),
		cfg:           cfg,
		log:           log,
	}
}

func (s *processorService) Process(ctx context.Context, task *dto.ProcessTask, onProgress ProgressFunc) *dto.ProcessResult {
	filename := filepath.Base(task.FilePath)
	result, err := s.process(ctx, task, onProgress)
	if err != nil {
		s.log.Error("processor", "Document processing failed", map[string]interface{}{
			"document_id": task.DocumentId,
			"kb_id":       task.KnowledgeBaseId,
			"file":        filename,
			"error":       err.Error(),
		})
		return &dto.ProcessResult{
			Success: false,
			Message: fmt.Sprintf("Error processing %s: %s", filename, err.Error()),
		}
	}
	return result
}

func (s *processorService) process(ctx context.Context, task *dto.ProcessTask, onProgress ProgressFunc) (*dto.ProcessResult, error) {
	if onProgress == nil {
		onProgress = func(context.Context, int, string) {}
	}
	filename := filepath.Base(task.FilePath)

	if _, err := os.Stat(task.FilePath); err != nil {
		return nil, fmt.Errorf("input file not readable: %w", err)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	kb, err := uow.KnowledgeBaseRepository().FindOne(ctx, specification.ByID{ID: task.KnowledgeBaseId})
	if err != nil {
		return nil, fmt.Errorf("load knowledge base: %w", err)
	}
	if kb == nil {
		return nil, fmt.Errorf("knowledge base %d not found", task.KnowledgeBaseId)
	}
	if kb.WorkingDir == "" {
		return nil, fmt.Errorf("knowledge base %d has no working directory", task.KnowledgeBaseId)
	}

	models, err := s.resolveModels(ctx, uow, kb, task.Overrides)
	if err != nil {
		return nil, err
	}

	onProgress(ctx, 15, "Initializing engine")

	// A fresh engine per invocation. Caching instances across calls
	// previously caused stale-configuration bugs.
	engine, err := s.engineFactory(rag.Config{
		WorkingDir:     kb.WorkingDir,
		Parser:         string(kb.ParserType),
		ParseMethod:    kb.ParseMethod,
		EnableImage:    kb.EnableImageProcessing,
		EnableTable:    kb.EnableTableProcessing,
		EnableEquation: kb.EnableEquationProcessing,
		Language:       s.cfg.Models.Language,
	}, models)
	if err != nil {
		return nil, fmt.Errorf("initialize engine: %w", err)
	}

	onProgress(ctx, 25, "Parsing document")

	stats, err := engine.ProcessDocument(ctx, task.FilePath)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	// An engine can give up without raising. Its own status record is
	// the authority on whether the run actually succeeded.
	status, err := engine.DocStatus(ctx, task.FilePath)
	if err != nil {
		return nil, fmt.Errorf("verify document status: %w", err)
	}
	if status == rag.DocStatusFailed {
		return nil, fmt.Errorf("engine reported failed status for %s", filename)
	}

	onProgress(ctx, 70, "Extracting knowledge graph")

	entities, relations := s.extractGraph(ctx, engine, task.FilePath)

	onProgress(ctx, 85, "Storing graph data")

	if len(entities) == 0 && len(relations) == 0 {
		// A document may legitimately contain no extractable entities.
		s.log.Info("processor", "No graph data extracted, skipping store", map[string]interface{}{
			"document_id": task.DocumentId,
			"file":        filename,
		})
	} else {
		if err := s.store.Store(ctx, task.KnowledgeBaseId, entities, relations); err != nil {
			return nil, fmt.Errorf("store graph data: %w", err)
		}
	}

	onProgress(ctx, 100, "Processing completed successfully")

	s.log.Info("processor", "Document processed", map[string]interface{}{
		"document_id": task.DocumentId,
		"kb_id":       task.KnowledgeBaseId,
		"file":        filename,
		"entities":    len(entities),
		"relations":   len(relations),
	})

	return &dto.ProcessResult{
		Success:       true,
		EntityCount:   len(entities),
		RelationCount: len(relations),
		TextCount:     stats.TextCount,
		ImageCount:    stats.ImageCount,
		TableCount:    stats.TableCount,
		EquationCount: stats.EquationCount,
		Message: fmt.Sprintf("Processed %s: extracted %d entities and %d relations",
			filename, len(entities), len(relations)),
	}, nil
}

// extractGraph normalizes the engine's graph. When edge iteration
// yields nothing, the auxiliary relation-pairs collection is expanded
// as a fallback.
func (s *processorService) extractGraph(ctx context.Context, engine rag.Engine, filePath string) ([]graph.Entity, []graph.Relation) {
	data, err := engine.GraphData(ctx)
	if err != nil {
		s.log.Warn("processor", "Failed to read engine graph data", map[string]interface{}{
			"file":  filePath,
			"error": err.Error(),
		})
		return nil, nil
	}

	entities, relations := s.extractor.Extract(data, filePath)

	if len(relations) == 0 {
		pairs, err := engine.RelationPairs(ctx)
		if err != nil {
			s.log.Debug("processor", "Relation pairs fallback unavailable", map[string]interface{}{
				"file":  filePath,
				"error": err.Error(),
			})
		} else {
			relations = s.extractor.ExtractRelationPairs(pairs, filePath)
		}
	}

	return entities, relations
}

// resolveModels picks credentials per role: request override, then the
// kb's bound model, then the process default. The embedding role
// additionally falls back to the resolved LLM credentials when no
// embedding-specific key is configured.
func (s *processorService) resolveModels(ctx context.Context, uow unitofwork.UnitOfWork, kb *entity.KnowledgeBase, overrides dto.ModelOverrides) (rag.ModelFuncs, error) {
	llmCreds, err := s.resolveRole(ctx, uow, overrides.LlmModelId, kb.LlmModelId, s.cfg.Models.LLM)
	if err != nil {
		return rag.ModelFuncs{}, fmt.Errorf("resolve llm model: %w", err)
	}

	vlmCreds, err := s.resolveRole(ctx, uow, overrides.VlmModelId, kb.VlmModelId, s.cfg.Models.VLM)
	if err != nil {
		return rag.ModelFuncs{}, fmt.Errorf("resolve vlm model: %w", err)
	}

	embCreds, err := s.resolveRole(ctx, uow, overrides.EmbeddingModelId, kb.EmbeddingModelId, s.cfg.Models.Embedding)
	if err != nil {
		return rag.ModelFuncs{}, fmt.Errorf("resolve embedding model: %w", err)
	}
	if embCreds.APIKey == "" {
		embCreds.APIKey = llmCreds.APIKey
		if embCreds.BaseURL == "" {
			embCreds.BaseURL = llmCreds.BaseURL
		}
		if embCreds.Provider == "" {
			embCreds.Provider = llmCreds.Provider
		}
	}

	models := rag.ModelFuncs{}

	models.LLM, err = factory.NewLLMProvider(llmCreds.Provider, llmCreds.ModelName, llmCreds.APIKey, llmCreds.BaseURL)
	if err != nil {
		return rag.ModelFuncs{}, fmt.Errorf("build llm provider: %w", err)
	}

	if vlmCreds.ModelName != "" {
		models.Vision, err = factory.NewLLMProvider(vlmCreds.Provider, vlmCreds.ModelName, vlmCreds.APIKey, vlmCreds.BaseURL)
		if err != nil {
			return rag.ModelFuncs{}, fmt.Errorf("build vision provider: %w", err)
		}
	}

	if embCreds.ModelName != "" {
		models.Embedding, err = factory.NewEmbeddingProvider(embCreds.Provider, embCreds.ModelName, embCreds.APIKey, embCreds.BaseURL, s.cfg.Models.EmbeddingDim)
		if err != nil {
			return rag.ModelFuncs{}, fmt.Errorf("build embedding provider: %w", err)
		}
	}

	return models, nil
}

func (s *processorService) resolveRole(ctx context.Context, uow unitofwork.UnitOfWork, overrideID, kbBoundID *int64, processDefault config.ModelCredentials) (config.ModelCredentials, error) {
	for _, id := range []*int64{overrideID, kbBoundID} {
		if id == nil {
			continue
		}
		mc, err := uow.ModelConfigRepository().FindOne(ctx,
			specification.ByID{ID: *id},
			specification.OnlyActive{},
		)
		if err != nil {
			return config.ModelCredentials{}, err
		}
		if mc == nil {
			continue
		}
		return config.ModelCredentials{
			Provider:  mc.Provider,
			ModelName: mc.ModelName,
			APIKey:    mc.APIKey,
			BaseURL:   mc.APIBaseURL,
		}, nil
	}
	return processDefault, nil
}
