package implementation

import (
	"context"

	"ai-specforge-be/internal/entity"
	"ai-specforge-be/internal/mapper"
	"ai-specforge-be/internal/model"
	"ai-specforge-be/internal/repository/contract"
	"ai-specforge-be/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type KnowledgeChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.KnowledgeChunkMapper
}

func NewKnowledgeChunkRepository(db *gorm.DB) contract.KnowledgeChunkRepository {
	return &KnowledgeChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewKnowledgeChunkMapper(),
	}
}

func (r *KnowledgeChunkRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

// CreateIgnoreDuplicates relies on the unique hash index: ON CONFLICT DO
// NOTHING makes finalize idempotent without a read-before-write race.
func (r *KnowledgeChunkRepositoryImpl) CreateIgnoreDuplicates(ctx context.Context, chunks []*entity.KnowledgeChunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	models := make([]*model.KnowledgeChunk, len(chunks))
	for i, c := range chunks {
		models[i] = r.mapper.ToModel(c)
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "hash"}},
			DoNothing: true,
		}).
		Create(models)
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

func (r *KnowledgeChunkRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeChunk, error) {
	var models []*model.KnowledgeChunk
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *KnowledgeChunkRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.KnowledgeChunk{}).Count(&count).Error
	return count, err
}
