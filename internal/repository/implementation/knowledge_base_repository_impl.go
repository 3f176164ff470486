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

type KnowledgeBaseRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.KnowledgeBaseMapper
}

func NewKnowledgeBaseRepository(db *gorm.DB) contract.KnowledgeBaseRepository {
	return &KnowledgeBaseRepositoryImpl{
		db:     db,
		mapper: mapper.NewKnowledgeBaseMapper(),
	}
}

func (r *KnowledgeBaseRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *KnowledgeBaseRepositoryImpl) Create(ctx context.Context, kb *entity.KnowledgeBase) error {
	m := r.mapper.ToModel(kb)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*kb = *r.mapper.ToEntity(m)
	return nil
}

func (r *KnowledgeBaseRepositoryImpl) Update(ctx context.Context, kb *entity.KnowledgeBase) error {
	m := r.mapper.ToModel(kb)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*kb = *r.mapper.ToEntity(m)
	return nil
}

func (r *KnowledgeBaseRepositoryImpl) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.KnowledgeBase{}, id).Error
}

func (r *KnowledgeBaseRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KnowledgeBase, error) {
	var m model.KnowledgeBase
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *KnowledgeBaseRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeBase, error) {
	var models []*model.KnowledgeBase
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *KnowledgeBaseRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.KnowledgeBase{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
