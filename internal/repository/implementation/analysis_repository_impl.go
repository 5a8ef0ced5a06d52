package implementation

import (
	"context"
	"errors"

	"ai-specforge-be/internal/entity"
	"ai-specforge-be/internal/mapper"
	"ai-specforge-be/internal/model"
	"ai-specforge-be/internal/repository/contract"
	"ai-specforge-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type AnalysisRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AnalysisMapper
}

func NewAnalysisRepository(db *gorm.DB) contract.AnalysisRepository {
	return &AnalysisRepositoryImpl{
		db:     db,
		mapper: mapper.NewAnalysisMapper(),
	}
}

func (r *AnalysisRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *AnalysisRepositoryImpl) Create(ctx context.Context, analysis *entity.Analysis) error {
	m := r.mapper.ToModel(analysis)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*analysis = *r.mapper.ToEntity(m)
	return nil
}

func (r *AnalysisRepositoryImpl) Update(ctx context.Context, analysis *entity.Analysis) error {
	m := r.mapper.ToModel(analysis)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*analysis = *r.mapper.ToEntity(m)
	return nil
}

func (r *AnalysisRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Analysis{}, id).Error
}

func (r *AnalysisRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Analysis, error) {
	var m model.Analysis
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *AnalysisRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Analysis, error) {
	var models []*model.Analysis
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *AnalysisRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.Analysis{}).Count(&count).Error
	return count, err
}

// MaxVersionForUpdate serializes sibling version assignment per lineage.
// A plain MAX + FOR UPDATE cannot see rows a blocked sibling just inserted,
// so we take a transaction-scoped advisory lock keyed on the root instead.
func (r *AnalysisRepositoryImpl) MaxVersionForUpdate(ctx context.Context, rootId uuid.UUID) (int, error) {
	if err := r.db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtext(?))", rootId.String()).Error; err != nil {
		return 0, err
	}

	var max int
	err := r.db.WithContext(ctx).
		Model(&model.Analysis{}).
		Where("root_id = ?", rootId).
		Select("COALESCE(MAX(version), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max, nil
}

// SearchSimilarFinalized runs the cosine ANN query over finalized rows.
// pgvector's <=> operator is cosine distance, so similarity = 1 - distance.
func (r *AnalysisRepositoryImpl) SearchSimilarFinalized(ctx context.Context, vector []float32, limit int) ([]*contract.ScoredAnalysis, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.Analysis
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(vector)

	err := r.db.WithContext(ctx).
		Table("analyses").
		Select("analyses.*, 1 - (vector_signature <=> ?) as similarity", queryVector).
		Where("is_finalized = TRUE").
		Where("vector_signature IS NOT NULL").
		Where("deleted_at IS NULL").
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredAnalysis, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredAnalysis{
			Analysis:   r.mapper.ToEntity(&res.Analysis),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
