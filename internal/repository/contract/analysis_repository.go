package contract

import (
	"context"

	"ai-specforge-be/internal/entity"
	"ai-specforge-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredAnalysis pairs a finalized record with its cosine similarity to a
// query vector.
type ScoredAnalysis struct {
	Analysis   *entity.Analysis
	Similarity float64
}

type AnalysisRepository interface {
	Create(ctx context.Context, analysis *entity.Analysis) error
	Update(ctx context.Context, analysis *entity.Analysis) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Analysis, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Analysis, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// MaxVersionForUpdate returns the highest version under rootId, locking
	// the lineage rows so concurrent siblings serialize. Must be called
	// inside an open transaction.
	MaxVersionForUpdate(ctx context.Context, rootId uuid.UUID) (int, error)

	// SearchSimilarFinalized runs a cosine ANN query over finalized rows
	// and returns the best matches, highest similarity first.
	SearchSimilarFinalized(ctx context.Context, vector []float32, limit int) ([]*ScoredAnalysis, error)
}
