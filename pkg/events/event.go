package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "ANALYSIS_COMPLETED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event codes published by the orchestrator.
const (
	TypeAnalysisCompleted = "ANALYSIS_COMPLETED"
	TypeAnalysisFailed    = "ANALYSIS_FAILED"
	TypeAnalysisFinalized = "ANALYSIS_FINALIZED"
)

// BaseEvent is the generic implementation used across services.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
