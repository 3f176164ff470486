package service

import (
	"context"

	"rag-knowledge-be/internal/dto"
	"rag-knowledge-be/internal/pkg/logger"
	"rag-knowledge-be/internal/repository/unitofwork"
	"rag-knowledge-be/pkg/rag"
)

// IAdminService exposes storage maintenance operations. Superuser only;
// routing enforces that, not this layer.
type IAdminService interface {
	StorageStats(ctx context.Context, kbID *int64) (*dto.StorageStatsResponse, error)
	CleanupOrphaned(ctx context.Context) (*dto.CleanupResponse, error)
	DeleteKBStorage(ctx context.Context, kbID int64) error
}

type adminService struct {
	uowFactory unitofwork.RepositoryFactory
	cleanup    *rag.CleanupService
	log        logger.ILogger
}

func NewAdminService(uowFactory unitofwork.RepositoryFactory, cleanup *rag.CleanupService, log logger.ILogger) IAdminService {
	return &adminService{uowFactory: uowFactory, cleanup: cleanup, log: log}
}

func (s *adminService) activeKBIDs(ctx context.Context) ([]int64, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	kbs, err := uow.KnowledgeBaseRepository().FindAll(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(kbs))
	for _, kb := range kbs {
		ids = append(ids, kb.Id)
	}
	return ids, nil
}

func (s *adminService) StorageStats(ctx context.Context, kbID *int64) (*dto.StorageStatsResponse, error) {
	stats, err := s.cleanup.Stats(kbID)
	if err != nil {
		return nil, err
	}

	var orphaned []string
	if kbID == nil {
		activeIDs, err := s.activeKBIDs(ctx)
		if err != nil {
			return nil, err
		}
		active := map[int64]bool{}
		for _, id := range activeIDs {
			active[id] = true
		}
		dirs, err := s.cleanup.ListKBDirs()
		if err != nil {
			return nil, err
		}
		for id, path := range dirs {
			if !active[id] {
				orphaned = append(orphaned, path)
			}
		}
	}

	return &dto.StorageStatsResponse{
		TotalSizeBytes: stats.TotalSizeBytes,
		KbSizes:        stats.KBSizes,
		FileCount:      stats.FileCount,
		OrphanedDirs:   orphaned,
	}, nil
}

func (s *adminService) CleanupOrphaned(ctx context.Context) (*dto.CleanupResponse, error) {
	activeIDs, err := s.activeKBIDs(ctx)
	if err != nil {
		return nil, err
	}
	result, err := s.cleanup.CleanupOrphanedStorage(activeIDs)
	if err != nil {
		return nil, err
	}
	s.log.Info("admin", "Orphaned storage cleanup completed", map[string]interface{}{
		"removed_dirs": len(result.RemovedDirs),
		"bytes_freed":  result.BytesFreed,
		"errors":       len(result.Errors),
	})
	return &dto.CleanupResponse{
		RemovedDirs: result.RemovedDirs,
		BytesFreed:  result.BytesFreed,
	}, nil
}

func (s *adminService) DeleteKBStorage(ctx context.Context, kbID int64) error {
	return s.cleanup.DeleteKBStorage(kbID)
}
