package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"ai-specforge-be/internal/entity"
	"ai-specforge-be/pkg/diff"
)

type SubmitAnalysisRequest struct {
	Text     string                 `json:"text" validate:"required,min=10"`
	Settings *entity.PromptSettings `json:"settings"`
}

type SubmitAnalysisResponse struct {
	Id      uuid.UUID             `json:"id"`
	RootId  uuid.UUID             `json:"root_id"`
	Version int                   `json:"version"`
	Status  entity.AnalysisStatus `json:"status"`
}

type AnalysisStatusResponse struct {
	Id             uuid.UUID             `json:"id"`
	Status         entity.AnalysisStatus `json:"status"`
	WorkflowStatus string                `json:"workflow_status,omitempty"`
	QualityScore   *int                  `json:"quality_score,omitempty"`
	ErrorMessage   string                `json:"error_message,omitempty"`
}

type AnalysisDetailResponse struct {
	Id             uuid.UUID               `json:"id"`
	RootId         uuid.UUID               `json:"root_id"`
	ParentId       *uuid.UUID              `json:"parent_id,omitempty"`
	Version        int                     `json:"version"`
	InputText      string                  `json:"input_text"`
	ResultJson     json.RawMessage         `json:"result_json,omitempty"`
	GeneratedCode  string                  `json:"generated_code,omitempty"`
	Status         entity.AnalysisStatus   `json:"status"`
	WorkflowStatus entity.WorkflowStatus   `json:"workflow_status"`
	IsFinalized    bool                    `json:"is_finalized"`
	Metadata       entity.AnalysisMetadata `json:"metadata"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      *time.Time              `json:"updated_at"`
}

type HistoryItemResponse struct {
	Id          uuid.UUID             `json:"id"`
	ParentId    *uuid.UUID            `json:"parent_id,omitempty"`
	Version     int                   `json:"version"`
	Status      entity.AnalysisStatus `json:"status"`
	IsFinalized bool                  `json:"is_finalized"`
	Trigger     string                `json:"trigger,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

type FinalizeResponse struct {
	Id            uuid.UUID `json:"id"`
	IsFinalized   bool      `json:"is_finalized"`
	ChunksStored  int       `json:"chunks_stored"`
	AlreadyStored bool      `json:"already_stored"`
	HasSignature  bool      `json:"has_signature"`
}

type UpdateAnalysisRequest struct {
	Id         uuid.UUID
	ResultJson json.RawMessage `json:"result_json" validate:"required"`
}

type UpdateAnalysisResponse struct {
	Id           uuid.UUID `json:"id"`
	Version      int       `json:"version"`
	QualityScore int       `json:"quality_score"`
	Issues       []string  `json:"issues,omitempty"`
}

type DiffResponse struct {
	LeftId  uuid.UUID  `json:"left_id"`
	RightId uuid.UUID  `json:"right_id"`
	Delta   diff.Delta `json:"delta"`
}
