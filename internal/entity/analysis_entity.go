package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AnalysisStatus is the job lifecycle state. PENDING is the only
// non-terminal state; COMPLETED and FAILED are immutable.
type AnalysisStatus string

const (
	AnalysisStatusPending   AnalysisStatus = "PENDING"
	AnalysisStatusCompleted AnalysisStatus = "COMPLETED"
	AnalysisStatusFailed    AnalysisStatus = "FAILED"
)

// IsTerminal reports whether the record may no longer change state.
func (s AnalysisStatus) IsTerminal() bool {
	return s == AnalysisStatusCompleted || s == AnalysisStatusFailed
}

// WorkflowStatus tracks the pre-inference intake flow of a draft.
type WorkflowStatus string

const (
	WorkflowStatusDraft      WorkflowStatus = "DRAFT"
	WorkflowStatusValidating WorkflowStatus = "VALIDATING"
	WorkflowStatusValidated  WorkflowStatus = "VALIDATED"
	WorkflowStatusNeedsFix   WorkflowStatus = "NEEDS_FIX"
	WorkflowStatusCompleted  WorkflowStatus = "COMPLETED"
)

type AnalysisTrigger string

const (
	TriggerInitial    AnalysisTrigger = "initial"
	TriggerChat       AnalysisTrigger = "chat"
	TriggerEdit       AnalysisTrigger = "edit"
	TriggerRegenerate AnalysisTrigger = "regenerate"
)

// PromptSettings carries caller-supplied generation knobs end to end.
type PromptSettings struct {
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	Language    string  `json:"language,omitempty"`
}

// AnalysisMetadata is the audit/debug bag. Lifecycle state lives in
// first-class fields on Analysis, not here.
type AnalysisMetadata struct {
	Trigger          AnalysisTrigger `json:"trigger"`
	Source           string          `json:"source"` // "user" | "ai"
	Settings         PromptSettings  `json:"settings,omitempty"`
	ImprovementNotes string          `json:"improvement_notes,omitempty"`
	AffectedSections []string        `json:"affected_sections,omitempty"`
	ReuseTier        string          `json:"reuse_tier,omitempty"`
	ReuseAnalysisId  *uuid.UUID      `json:"reuse_analysis_id,omitempty"`
	ValidationIssues json.RawMessage `json:"validation_issues,omitempty"`
	DraftPayload     json.RawMessage `json:"draft_payload,omitempty"`
	SoftCapExceeded  bool            `json:"soft_cap_exceeded,omitempty"`
	ErrorMessage     string          `json:"error_message,omitempty"`

	// Extra preserves unknown fields round-tripped from external callers.
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// Analysis is one document version. Ancestry fields form the version DAG:
// a root record has ParentId == nil and RootId == Id.
type Analysis struct {
	Id       uuid.UUID
	RootId   uuid.UUID
	ParentId *uuid.UUID
	Version  int

	OwnerId       uuid.UUID
	InputText     string
	ResultJson    json.RawMessage
	GeneratedCode string

	Status         AnalysisStatus
	WorkflowStatus WorkflowStatus

	IsFinalized     bool
	VectorSignature []float32 // set only at finalization

	Metadata AnalysisMetadata

	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
}
