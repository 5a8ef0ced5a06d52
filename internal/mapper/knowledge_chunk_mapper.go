package mapper

import (
	"encoding/json"

	"ai-specforge-be/internal/entity"
	"ai-specforge-be/internal/model"

	"gorm.io/datatypes"
)

type KnowledgeChunkMapper struct{}

func NewKnowledgeChunkMapper() *KnowledgeChunkMapper {
	return &KnowledgeChunkMapper{}
}

func (m *KnowledgeChunkMapper) ToEntity(c *model.KnowledgeChunk) *entity.KnowledgeChunk {
	if c == nil {
		return nil
	}

	var tags []string
	if len(c.Tags) > 0 {
		_ = json.Unmarshal(c.Tags, &tags)
	}

	return &entity.KnowledgeChunk{
		Id:               c.Id,
		Type:             entity.ChunkType(c.Type),
		Content:          c.Content,
		Hash:             c.Hash,
		Tags:             tags,
		SourceAnalysisId: c.SourceAnalysisId,
		CreatedAt:        c.CreatedAt,
	}
}

func (m *KnowledgeChunkMapper) ToModel(c *entity.KnowledgeChunk) *model.KnowledgeChunk {
	if c == nil {
		return nil
	}

	tagsJson, _ := json.Marshal(c.Tags)

	return &model.KnowledgeChunk{
		Id:               c.Id,
		Type:             string(c.Type),
		Content:          c.Content,
		Hash:             c.Hash,
		Tags:             datatypes.JSON(tagsJson),
		SourceAnalysisId: c.SourceAnalysisId,
		CreatedAt:        c.CreatedAt,
	}
}

func (m *KnowledgeChunkMapper) ToEntities(chunks []*model.KnowledgeChunk) []*entity.KnowledgeChunk {
	entities := make([]*entity.KnowledgeChunk, len(chunks))
	for i, c := range chunks {
		entities[i] = m.ToEntity(c)
	}
	return entities
}
