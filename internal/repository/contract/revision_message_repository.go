package contract

import (
	"context"

	"ai-specforge-be/internal/entity"
	"ai-specforge-be/internal/repository/specification"
)

type RevisionMessageRepository interface {
	Create(ctx context.Context, msg *entity.RevisionMessage) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.RevisionMessage, error)
}
