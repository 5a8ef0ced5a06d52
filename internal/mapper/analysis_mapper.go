package mapper

import (
	"encoding/json"
	"time"

	"ai-specforge-be/internal/entity"
	"ai-specforge-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AnalysisMapper struct{}

func NewAnalysisMapper() *AnalysisMapper {
	return &AnalysisMapper{}
}

func (m *AnalysisMapper) ToEntity(a *model.Analysis) *entity.Analysis {
	if a == nil {
		return nil
	}

	var deletedAt *time.Time
	if a.DeletedAt.Valid {
		t := a.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !a.UpdatedAt.IsZero() {
		t := a.UpdatedAt
		updatedAt = &t
	}

	var meta entity.AnalysisMetadata
	if len(a.Metadata) > 0 {
		// Unknown fields are dropped here; Extra survives round trips
		// because it is a named column of the JSON document itself.
		_ = json.Unmarshal(a.Metadata, &meta)
	}

	var vector []float32
	if a.VectorSignature != nil {
		vector = a.VectorSignature.Slice()
	}

	return &entity.Analysis{
		Id:              a.Id,
		RootId:          a.RootId,
		ParentId:        a.ParentId,
		Version:         a.Version,
		OwnerId:         a.OwnerId,
		InputText:       a.InputText,
		ResultJson:      json.RawMessage(a.ResultJson),
		GeneratedCode:   a.GeneratedCode,
		Status:          entity.AnalysisStatus(a.Status),
		WorkflowStatus:  entity.WorkflowStatus(a.WorkflowStatus),
		IsFinalized:     a.IsFinalized,
		VectorSignature: vector,
		Metadata:        meta,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       updatedAt,
		DeletedAt:       deletedAt,
	}
}

func (m *AnalysisMapper) ToModel(a *entity.Analysis) *model.Analysis {
	if a == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if a.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *a.DeletedAt, Valid: true}
	}

	var updatedAt time.Time
	if a.UpdatedAt != nil {
		updatedAt = *a.UpdatedAt
	}

	metaJson, _ := json.Marshal(a.Metadata)

	var vector *pgvector.Vector
	if len(a.VectorSignature) > 0 {
		v := pgvector.NewVector(a.VectorSignature)
		vector = &v
	}

	return &model.Analysis{
		Id:              a.Id,
		RootId:          a.RootId,
		ParentId:        a.ParentId,
		Version:         a.Version,
		OwnerId:         a.OwnerId,
		InputText:       a.InputText,
		ResultJson:      datatypes.JSON(a.ResultJson),
		GeneratedCode:   a.GeneratedCode,
		Status:          string(a.Status),
		WorkflowStatus:  string(a.WorkflowStatus),
		IsFinalized:     a.IsFinalized,
		VectorSignature: vector,
		Metadata:        datatypes.JSON(metaJson),
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       updatedAt,
		DeletedAt:       deletedAt,
	}
}

func (m *AnalysisMapper) ToEntities(analyses []*model.Analysis) []*entity.Analysis {
	entities := make([]*entity.Analysis, len(analyses))
	for i, a := range analyses {
		entities[i] = m.ToEntity(a)
	}
	return entities
}
