package implementation

import (
	"context"
	"errors"

	"rag-knowledge-be/internal/entity"
	"rag-knowledge-be/internal/mapper"
	"rag-knowledge-be/internal/model"
	"rag-knowledge-be/internal/repository/contract"
	"rag-knowledge-be/internal/repository/specification"

	"gorm.io/gorm"
)

type ModelConfigRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ModelConfigMapper
}

func NewModelConfigRepository(db *gorm.DB) contract.ModelConfigRepository {
	return &ModelConfigRepositoryImpl{
		db:     db,
		mapper: mapper.NewModelConfigMapper(),
	}
}

func (r *ModelConfigRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ModelConfigRepositoryImpl) Create(ctx context.Context, mc *entity.ModelConfig) error {
	m := r.mapper.ToModel(mc)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*mc = *r.mapper.ToEntity(m)
	return nil
}

func (r *ModelConfigRepositoryImpl) Update(ctx context.Context, mc *entity.ModelConfig) error {
	m := r.mapper.ToModel(mc)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*mc = *r.mapper.ToEntity(m)
	return nil
}

func (r *ModelConfigRepositoryImpl) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.ModelConfig{}, id).Error
}

func (r *ModelConfigRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ModelConfig, error) {
	var m model.ModelConfig
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ModelConfigRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ModelConfig, error) {
	var models []*model.ModelConfig
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}
