package service

import (
	"context"
	"fmt"

	"rag-knowledge-be/internal/dto"
	"rag-knowledge-be/internal/pkg/logger"
	"rag-knowledge-be/internal/repository/specification"
	"rag-knowledge-be/internal/repository/unitofwork"
	"rag-knowledge-be/pkg/graph"
)

type IGraphService interface {
	GetGraph(ctx context.Context, userId int64, kbID int64, limit int) (*dto.KnowledgeGraphResponse, error)
	GetStats(ctx context.Context, userId int64, kbID int64) (*dto.GraphStatsResponse, error)
}

type graphService struct {
	uowFactory unitofwork.RepositoryFactory
	store      *graph.Store
	log        logger.ILogger
}

func NewGraphService(uowFactory unitofwork.RepositoryFactory, store *graph.Store, log logger.ILogger) IGraphService {
	return &graphService{uowFactory: uowFactory, store: store, log: log}
}

func (s *graphService) checkOwnership(ctx context.Context, userId int64, kbID int64) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	kb, err := uow.KnowledgeBaseRepository().FindOne(ctx,
		specification.ByID{ID: kbID},
		specification.ByUserID{UserID: userId},
	)
	if err != nil {
		return err
	}
	if kb == nil {
		return fmt.Errorf("knowledge base %d not found", kbID)
	}
	return nil
}

func (s *graphService) GetGraph(ctx context.Context, userId int64, kbID int64, limit int) (*dto.KnowledgeGraphResponse, error) {
	if err := s.checkOwnership(ctx, userId, kbID); err != nil {
		return nil, err
	}

	result, err := s.store.Query(ctx, kbID, limit)
	if err != nil {
		return nil, err
	}

	resp := &dto.KnowledgeGraphResponse{
		Nodes:  make([]dto.GraphNodeResponse, 0, len(result.Nodes)),
		Edges:  make([]dto.GraphEdgeResponse, 0, len(result.Edges)),
		IsStub: result.IsStub,
	}
	for _, node := range result.Nodes {
		resp.Nodes = append(resp.Nodes, dto.GraphNodeResponse{
			Id:         node.Id,
			Label:      node.Name,
			EntityType: node.Type,
			Properties: map[string]interface{}{
				"description": node.Description,
			},
		})
	}
	for i, edge := range result.Edges {
		resp.Edges = append(resp.Edges, dto.GraphEdgeResponse{
			Id:     fmt.Sprintf("edge_%d", i),
			Source: edge.Source,
			Target: edge.Target,
			Type:   edge.Type,
			Properties: map[string]interface{}{
				"weight":      edge.Weight,
				"description": edge.Description,
				"keywords":    edge.Keywords,
			},
		})
	}
	resp.NodeCount = len(resp.Nodes)
	resp.EdgeCount = len(resp.Edges)
	return resp, nil
}

func (s *graphService) GetStats(ctx context.Context, userId int64, kbID int64) (*dto.GraphStatsResponse, error) {
	if err := s.checkOwnership(ctx, userId, kbID); err != nil {
		return nil, err
	}

	stats, err := s.store.Stats(ctx, kbID)
	if err != nil {
		return nil, err
	}

	// Type distribution comes from the node set rather than a separate
	// aggregate query; bounded by the query limit cap.
	types := map[string]int64{}
	result, err := s.store.Query(ctx, kbID, 1000)
	if err == nil {
		for _, node := range result.Nodes {
			if node.Type != "" {
				types[node.Type]++
			}
		}
	}

	return &dto.GraphStatsResponse{
		EntityCount:   stats.EntityCount,
		RelationCount: stats.RelationCount,
		EntityTypes:   types,
	}, nil
}
