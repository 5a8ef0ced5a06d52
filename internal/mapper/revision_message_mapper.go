package mapper

import (
	"ai-specforge-be/internal/entity"
	"ai-specforge-be/internal/model"
)

type RevisionMessageMapper struct{}

func NewRevisionMessageMapper() *RevisionMessageMapper {
	return &RevisionMessageMapper{}
}

func (m *RevisionMessageMapper) ToEntity(r *model.RevisionMessage) *entity.RevisionMessage {
	if r == nil {
		return nil
	}
	return &entity.RevisionMessage{
		Id:                r.Id,
		AnalysisRootId:    r.AnalysisRootId,
		OwnerId:           r.OwnerId,
		Role:              r.Role,
		Content:           r.Content,
		CreatedAnalysisId: r.CreatedAnalysisId,
		CreatedAt:         r.CreatedAt,
	}
}

func (m *RevisionMessageMapper) ToModel(r *entity.RevisionMessage) *model.RevisionMessage {
	if r == nil {
		return nil
	}
	return &model.RevisionMessage{
		Id:                r.Id,
		AnalysisRootId:    r.AnalysisRootId,
		OwnerId:           r.OwnerId,
		Role:              r.Role,
		Content:           r.Content,
		CreatedAnalysisId: r.CreatedAnalysisId,
		CreatedAt:         r.CreatedAt,
	}
}

func (m *RevisionMessageMapper) ToEntities(msgs []*model.RevisionMessage) []*entity.RevisionMessage {
	entities := make([]*entity.RevisionMessage, len(msgs))
	for i, r := range msgs {
		entities[i] = m.ToEntity(r)
	}
	return entities
}
