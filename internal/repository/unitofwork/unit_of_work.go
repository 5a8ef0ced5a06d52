package unitofwork

import (
	"context"

	"ai-specforge-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	AnalysisRepository() contract.AnalysisRepository
	KnowledgeChunkRepository() contract.KnowledgeChunkRepository
	RevisionMessageRepository() contract.RevisionMessageRepository
}
