package service

import (
	"context"

	"rag-knowledge-be/internal/dto"
	"rag-knowledge-be/internal/entity"
	"rag-knowledge-be/internal/repository/specification"
	"rag-knowledge-be/internal/repository/unitofwork"
)

type IModelConfigService interface {
	Create(ctx context.Context, userId int64, req *dto.CreateModelConfigRequest) (*dto.ModelConfigResponse, error)
	Update(ctx context.Context, userId int64, req *dto.UpdateModelConfigRequest) (*dto.ModelConfigResponse, error)
	Show(ctx context.Context, userId int64, id int64) (*dto.ModelConfigResponse, error)
	List(ctx context.Context, userId int64, modelType string) ([]dto.ModelConfigResponse, error)
	Delete(ctx context.Context, userId int64, id int64) error
}

type modelConfigService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewModelConfigService(uowFactory unitofwork.RepositoryFactory) IModelConfigService {
	return &modelConfigService{uowFactory: uowFactory}
}

// clearDefault drops the default flag from any other config of the same type
// so at most one default exists per (user, model_type).
func (s *modelConfigService) clearDefault(ctx context.Context, uow unitofwork.UnitOfWork, userId int64, modelType entity.ModelType, exceptId int64) error {
	others, err := uow.ModelConfigRepository().FindAll(ctx,
		specification.ByUserID{UserID: userId},
		specification.ByModelType{ModelType: modelType},
		specification.OnlyDefault{},
	)
	if err != nil {
		return err
	}
	for _, other := range others {
		if other.Id == exceptId {
			continue
		}
		other.IsDefault = false
		if err := uow.ModelConfigRepository().Update(ctx, other); err != nil {
			return err
		}
	}
	return nil
}

func (s *modelConfigService) Create(ctx context.Context, userId int64, req *dto.CreateModelConfigRequest) (*dto.ModelConfigResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	mc := &entity.ModelConfig{
		Name:       req.Name,
		ModelType:  entity.ModelType(req.ModelType),
		Provider:   req.Provider,
		ModelName:  req.ModelName,
		APIKey:     req.APIKey,
		APIBaseURL: req.APIBaseURL,
		IsDefault:  req.IsDefault,
		IsActive:   true,
		UserId:     userId,
	}
	if err := uow.ModelConfigRepository().Create(ctx, mc); err != nil {
		return nil, err
	}
	if mc.IsDefault {
		if err := s.clearDefault(ctx, uow, userId, mc.ModelType, mc.Id); err != nil {
			return nil, err
		}
	}
	return toModelConfigResponse(mc), nil
}

func (s *modelConfigService) Update(ctx context.Context, userId int64, req *dto.UpdateModelConfigRequest) (*dto.ModelConfigResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	mc, err := uow.ModelConfigRepository().FindOne(ctx,
		specification.ByID{ID: req.Id},
		specification.ByUserID{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if mc == nil {
		return nil, nil
	}

	mc.Name = req.Name
	mc.Provider = req.Provider
	mc.ModelName = req.ModelName
	if req.APIKey != "" {
		mc.APIKey = req.APIKey
	}
	mc.APIBaseURL = req.APIBaseURL
	mc.IsDefault = req.IsDefault
	if req.IsActive != nil {
		mc.IsActive = *req.IsActive
	}

	if err := uow.ModelConfigRepository().Update(ctx, mc); err != nil {
		return nil, err
	}
	if mc.IsDefault {
		if err := s.clearDefault(ctx, uow, userId, mc.ModelType, mc.Id); err != nil {
			return nil, err
		}
	}
	return toModelConfigResponse(mc), nil
}

func (s *modelConfigService) Show(ctx context.Context, userId int64, id int64) (*dto.ModelConfigResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	mc, err := uow.ModelConfigRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.ByUserID{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if mc == nil {
		return nil, nil
	}
	return toModelConfigResponse(mc), nil
}

func (s *modelConfigService) List(ctx context.Context, userId int64, modelType string) ([]dto.ModelConfigResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	specs := []specification.Specification{
		specification.ByUserID{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	}
	if modelType != "" {
		specs = append(specs, specification.ByModelType{ModelType: entity.ModelType(modelType)})
	}
	configs, err := uow.ModelConfigRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	out := make([]dto.ModelConfigResponse, 0, len(configs))
	for _, mc := range configs {
		out = append(out, *toModelConfigResponse(mc))
	}
	return out, nil
}

func (s *modelConfigService) Delete(ctx context.Context, userId int64, id int64) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	mc, err := uow.ModelConfigRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.ByUserID{UserID: userId},
	)
	if err != nil {
		return err
	}
	if mc == nil {
		return nil
	}
	return uow.ModelConfigRepository().Delete(ctx, id)
}

func toModelConfigResponse(mc *entity.ModelConfig) *dto.ModelConfigResponse {
	return &dto.ModelConfigResponse{
		Id:         mc.Id,
		Name:       mc.Name,
		ModelType:  mc.ModelType,
		Provider:   mc.Provider,
		ModelName:  mc.ModelName,
		APIBaseURL: mc.APIBaseURL,
		IsDefault:  mc.IsDefault,
		IsActive:   mc.IsActive,
		CreatedAt:  mc.CreatedAt,
		UpdatedAt:  mc.UpdatedAt,
	}
}
