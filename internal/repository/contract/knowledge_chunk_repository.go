package contract

import (
	"context"

	"ai-specforge-be/internal/entity"
	"ai-specforge-be/internal/repository/specification"
)

type KnowledgeChunkRepository interface {
	// CreateIgnoreDuplicates inserts chunks, silently skipping any whose
	// hash already exists. Returns the number actually stored.
	CreateIgnoreDuplicates(ctx context.Context, chunks []*entity.KnowledgeChunk) (int, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
