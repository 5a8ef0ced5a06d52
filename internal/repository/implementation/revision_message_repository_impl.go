package implementation

import (
	"context"

	"ai-specforge-be/internal/entity"
	"ai-specforge-be/internal/mapper"
	"ai-specforge-be/internal/model"
	"ai-specforge-be/internal/repository/contract"
	"ai-specforge-be/internal/repository/specification"

	"gorm.io/gorm"
)

type RevisionMessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.RevisionMessageMapper
}

func NewRevisionMessageRepository(db *gorm.DB) contract.RevisionMessageRepository {
	return &RevisionMessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewRevisionMessageMapper(),
	}
}

func (r *RevisionMessageRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *RevisionMessageRepositoryImpl) Create(ctx context.Context, msg *entity.RevisionMessage) error {
	m := r.mapper.ToModel(msg)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*msg = *r.mapper.ToEntity(m)
	return nil
}

func (r *RevisionMessageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.RevisionMessage, error) {
	var models []*model.RevisionMessage
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}
