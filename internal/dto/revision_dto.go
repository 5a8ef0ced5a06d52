package dto

import (
	"time"

	"github.com/google/uuid"

	"ai-specforge-be/internal/entity"
)

type ChatRevisionRequest struct {
	Id      uuid.UUID
	Message string `json:"message" validate:"required,min=2"`
}

type ChatRevisionResponse struct {
	Reply         string     `json:"reply"`
	NewAnalysisId *uuid.UUID `json:"new_analysis_id,omitempty"`
	NewVersion    *int       `json:"new_version,omitempty"`
}

type RegenerateRequest struct {
	Id               uuid.UUID
	ImprovementNotes string                 `json:"improvement_notes"`
	AffectedSections []string               `json:"affected_sections,omitempty"`
	Settings         *entity.PromptSettings `json:"settings"`
}

type RegenerateResponse struct {
	Id      uuid.UUID             `json:"id"`
	RootId  uuid.UUID             `json:"root_id"`
	Version int                   `json:"version"`
	Status  entity.AnalysisStatus `json:"status"`
}

type RevisionMessageResponse struct {
	Id                uuid.UUID  `json:"id"`
	Role              string     `json:"role"`
	Content           string     `json:"content"`
	CreatedAnalysisId *uuid.UUID `json:"created_analysis_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}
