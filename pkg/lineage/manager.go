package lineage

import (
	"context"
	"time"

	"ai-specforge-be/internal/entity"
	"ai-specforge-be/internal/pkg/logger"
	"ai-specforge-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// SoftVersionCap is advisory only: exceeding it is flagged in metadata and
// logged, never rejected.
const SoftVersionCap = 5

// Assignment is the ancestry slot computed for a new record.
type Assignment struct {
	Version int
	RootId  uuid.UUID
}

// Manager owns root/parent/version bookkeeping for the version DAG.
type Manager struct {
	log logger.ILogger
}

func NewManager(log logger.ILogger) *Manager {
	return &Manager{log: log}
}

// AssignVersion computes the slot for a record with the given id. With no
// root the record becomes its own root at version 1. With a root, the next
// version is max+1 computed under the lineage lock, so it MUST be called
// inside an open unit-of-work transaction. Concurrent siblings serialize
// on the lock and never share a version.
func (m *Manager) AssignVersion(ctx context.Context, uow unitofwork.UnitOfWork, newId uuid.UUID, rootId *uuid.UUID) (Assignment, error) {
	if rootId == nil {
		return Assignment{Version: 1, RootId: newId}, nil
	}

	max, err := uow.AnalysisRepository().MaxVersionForUpdate(ctx, *rootId)
	if err != nil {
		return Assignment{}, err
	}

	next := max + 1
	if next > SoftVersionCap && m.log != nil {
		m.log.Warn("lineage", "soft version cap exceeded", map[string]interface{}{
			"root_id": rootId.String(),
			"version": next,
		})
	}

	return Assignment{Version: next, RootId: *rootId}, nil
}

// DeriveNewVersion builds the successor record for edit/chat/regenerate
// flows. The caller persists it inside the same transaction that computed
// the assignment.
func (m *Manager) DeriveNewVersion(ctx context.Context, uow unitofwork.UnitOfWork, parent *entity.Analysis, trigger entity.AnalysisTrigger) (*entity.Analysis, error) {
	newId := uuid.New()

	rootId := parent.RootId
	if rootId == uuid.Nil {
		rootId = parent.Id
	}

	assignment, err := m.AssignVersion(ctx, uow, newId, &rootId)
	if err != nil {
		return nil, err
	}

	parentId := parent.Id
	child := &entity.Analysis{
		Id:             newId,
		RootId:         assignment.RootId,
		ParentId:       &parentId,
		Version:        assignment.Version,
		OwnerId:        parent.OwnerId,
		InputText:      parent.InputText,
		Status:         entity.AnalysisStatusPending,
		WorkflowStatus: entity.WorkflowStatusDraft,
		Metadata: entity.AnalysisMetadata{
			Trigger:         trigger,
			Source:          "user",
			Settings:        parent.Metadata.Settings,
			SoftCapExceeded: assignment.Version > SoftVersionCap,
		},
		CreatedAt: time.Now(),
	}

	return child, nil
}
