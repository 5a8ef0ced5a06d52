package inference

import "encoding/json"

// Feature is one capability the generated specification commits to.
type Feature struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Requirement covers both functional and non-functional entries; Category
// is only meaningful for non-functional requirements ("performance",
// "security", ...).
type Requirement struct {
	Id          string `json:"id"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description"`
}

type UserStory struct {
	Id        string `json:"id"`
	Role      string `json:"role"`
	Goal      string `json:"goal"`
	Benefit   string `json:"benefit"`
	FeatureId string `json:"feature_id"` // empty when the story maps to no feature
}

type AcceptanceCriteria struct {
	StoryId  string   `json:"story_id"`
	Criteria []string `json:"criteria"`
}

// StructuredResult is the machine-checked specification document the
// inference step produces. QualityScore/QualityIssues are merged in by the
// worker after linting, not returned by the model.
type StructuredResult struct {
	Title                     string               `json:"title"`
	Summary                   string               `json:"summary,omitempty"`
	Features                  []Feature            `json:"features"`
	FunctionalRequirements    []Requirement        `json:"functional_requirements"`
	NonFunctionalRequirements []Requirement        `json:"non_functional_requirements"`
	UserStories               []UserStory          `json:"user_stories"`
	AcceptanceCriteria        []AcceptanceCriteria `json:"acceptance_criteria"`
	GeneratedCode             string               `json:"generated_code,omitempty"`

	QualityScore  *int     `json:"quality_score,omitempty"`
	QualityIssues []string `json:"quality_issues,omitempty"`
}

// ChatOutcome is the strict-schema response of a conversational revision
// turn. UpdatedResult is nil when the model decided no document change is
// needed; in that case only the reply is recorded.
type ChatOutcome struct {
	Reply         string            `json:"reply"`
	UpdatedResult *StructuredResult `json:"updated_result,omitempty"`
}

// SemanticFinding is one drift classification from the draft gate's
// semantic check.
type SemanticFinding struct {
	Type    string `json:"type"` // "SEMANTIC_MISMATCH" | "SCOPE_CREEP"
	Section string `json:"section"`
	Detail  string `json:"detail"`
}

func ParseResult(raw json.RawMessage) (*StructuredResult, error) {
	var result StructuredResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
