package constant

const (
	RevisionRoleUser  = "user"
	RevisionRoleModel = "model"

	AnalysisSourceUser = "user"
	AnalysisSourceAI   = "ai"
)

// How many revision messages are replayed into a chat-revision prompt.
const RevisionHistoryWindow = 10

const GenerateSpecPromptV1 = `
You are a Requirements Analysis Agent.
Transform the requirements document below into a machine-checkable specification.

Requirements:
%s
%s
Instructions:
1. Extract features, functional requirements, non-functional requirements, user stories and acceptance criteria.
2. Every user story MUST reference the id of the feature it belongs to via "feature_id".
3. Non-functional requirements MUST state measurable targets (numbers, percentages, time or throughput units).
4. Output MUST be valid JSON matching this schema exactly:
{"title": "...", "summary": "...", "features": [{"id": "F1", "name": "...", "description": "..."}], "functional_requirements": [{"id": "FR1", "description": "..."}], "non_functional_requirements": [{"id": "NFR1", "category": "...", "description": "..."}], "user_stories": [{"id": "US1", "role": "...", "goal": "...", "benefit": "...", "feature_id": "F1"}], "acceptance_criteria": [{"story_id": "US1", "criteria": ["..."]}], "generated_code": ""}
`

// ReuseContextBlockV1 is injected into the generation prompt when the
// reuse engine found a prior artifact worth referencing.
const ReuseContextBlockV1 = `
A prior specification (%s similarity tier) is available as %s context:
%s
`

const ChatRevisionPromptV1 = `
You are revising an existing specification through conversation.

Original request:
%s

Current specification (JSON):
%s

Recent conversation:
%s

User instruction: "%s"

Instructions:
1. If the instruction asks for a document change, return the FULL updated specification in "updated_result" using the same schema as the current specification.
2. If the instruction is a question or needs no change, omit "updated_result".
3. Always include a short natural-language "reply".
4. Output MUST be valid JSON: {"reply": "...", "updated_result": {...} | omitted}
`

const RegeneratePromptV1 = `
You are regenerating a specification with targeted improvements.

Original request:
%s

Previous specification (JSON):
%s

Improvement notes:
%s

Affected sections: %s

Output MUST be valid JSON using the same schema as the previous specification.
`

const SemanticCheckPromptV1 = `
You are a Scope Review Agent.
The product domain is: "%s"
The declared purpose is: "%s"

Features:
%s

Instructions:
1. For each feature that conflicts with the declared domain, emit a finding of type "SEMANTIC_MISMATCH".
2. For each feature that merely drifts beyond the declared purpose, emit a finding of type "SCOPE_CREEP".
3. Features that fit produce no finding.
4. Output MUST be valid JSON: {"findings": [{"type": "SEMANTIC_MISMATCH|SCOPE_CREEP", "section": "Features", "detail": "..."}]}
`
