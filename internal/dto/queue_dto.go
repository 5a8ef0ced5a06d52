package dto

import "github.com/google/uuid"

// ProcessAnalysisMessage is the payload queued for the inference worker.
// The record is persisted before the message is published, so the id is
// all the worker needs.
type ProcessAnalysisMessage struct {
	AnalysisId uuid.UUID `json:"analysis_id"`
}
