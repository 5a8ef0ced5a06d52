package draft

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"ai-specforge-be/internal/constant"
	"ai-specforge-be/pkg/inference"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityBlocker  Severity = "BLOCKER"
)

// Section tags mirror the intake document layout.
const (
	SectionIntroduction = "Introduction"
	SectionFeatures     = "Features"
	SectionConstraints  = "Constraints"
)

type Issue struct {
	Severity Severity `json:"severity"`
	Section  string   `json:"section"`
	Message  string   `json:"message"`
}

// Payload is the structured pre-inference intake document.
type Payload struct {
	Purpose       string    `json:"purpose"`
	ProductDomain string    `json:"product_domain"`
	TargetUsers   []string  `json:"target_users,omitempty"`
	Features      []Feature `json:"features"`
	Constraints   []string  `json:"constraints,omitempty"`
}

type Feature struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

const (
	minPurposeLength     = 20
	minDescriptionLength = 10
)

// CheckStructure runs the purely structural required-field checks. Any
// critical issue forces NEEDS_FIX; none forces VALIDATED.
func CheckStructure(p *Payload) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Purpose) == "" {
		issues = append(issues, Issue{SeverityCritical, SectionIntroduction, "purpose is empty"})
	} else if utf8.RuneCountInString(strings.TrimSpace(p.Purpose)) < minPurposeLength {
		issues = append(issues, Issue{SeverityCritical, SectionIntroduction,
			fmt.Sprintf("purpose is shorter than %d characters", minPurposeLength)})
	}

	if strings.TrimSpace(p.ProductDomain) == "" {
		issues = append(issues, Issue{SeverityCritical, SectionIntroduction, "product domain is empty"})
	}

	if len(p.Features) == 0 {
		issues = append(issues, Issue{SeverityCritical, SectionFeatures, "no features declared"})
	}
	for i, f := range p.Features {
		if strings.TrimSpace(f.Name) == "" {
			issues = append(issues, Issue{SeverityCritical, SectionFeatures,
				fmt.Sprintf("feature #%d has no name", i+1)})
		}
		if utf8.RuneCountInString(strings.TrimSpace(f.Description)) < minDescriptionLength {
			issues = append(issues, Issue{SeverityWarning, SectionFeatures,
				fmt.Sprintf("feature %q has a very short description", f.Name)})
		}
	}

	if len(p.TargetUsers) == 0 {
		issues = append(issues, Issue{SeverityWarning, SectionIntroduction, "no target users declared"})
	}

	return issues
}

// HasCritical reports whether any issue forces NEEDS_FIX.
func HasCritical(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityCritical || issue.Severity == SeverityBlocker {
			return true
		}
	}
	return false
}

// Gate runs the full validation pass: structural checks locally, semantic
// drift checks through the inference gateway.
type Gate struct {
	gateway *inference.Gateway
}

func NewGate(gateway *inference.Gateway) *Gate {
	return &Gate{gateway: gateway}
}

// CheckSemantics asks the model whether each feature belongs to the
// declared product domain. SEMANTIC_MISMATCH is a hard conflict and always
// a BLOCKER; SCOPE_CREEP is soft drift and stays a warning.
func (g *Gate) CheckSemantics(ctx context.Context, p *Payload) ([]Issue, error) {
	var features strings.Builder
	for _, f := range p.Features {
		fmt.Fprintf(&features, "- %s: %s\n", f.Name, f.Description)
	}

	prompt := fmt.Sprintf(constant.SemanticCheckPromptV1, p.ProductDomain, p.Purpose, features.String())

	findings, err := g.gateway.ClassifySemantics(ctx, prompt, inference.Settings{})
	if err != nil {
		return nil, err
	}

	issues := make([]Issue, 0, len(findings))
	for _, f := range findings {
		severity := SeverityWarning
		if f.Type == "SEMANTIC_MISMATCH" {
			severity = SeverityBlocker
		}
		issues = append(issues, Issue{
			Severity: severity,
			Section:  f.Section,
			Message:  fmt.Sprintf("%s: %s", f.Type, f.Detail),
		})
	}
	return issues, nil
}
