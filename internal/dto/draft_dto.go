package dto

import (
	"github.com/google/uuid"

	"ai-specforge-be/pkg/draft"
)

type ValidateDraftRequest struct {
	Id    uuid.UUID
	Draft draft.Payload `json:"draft" validate:"required"`
}

type ValidateDraftResponse struct {
	Id             uuid.UUID     `json:"id"`
	WorkflowStatus string        `json:"workflow_status"`
	Passed         bool          `json:"passed"`
	Issues         []draft.Issue `json:"issues,omitempty"`
}
