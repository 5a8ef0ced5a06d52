package lint

import (
	"fmt"
	"regexp"
	"strings"

	"ai-specforge-be/pkg/inference"
)

// Report is the linter verdict. Score is clamped to [0, 100].
type Report struct {
	Score  int
	Issues []string
}

// Terms that make a requirement untestable. Matched case-insensitively on
// word boundaries.
var ambiguousTerms = []string{
	"fast",
	"easy",
	"robust",
	"seamless",
	"efficient",
	"simple",
	"scalable",
	"quickly",
	"user-friendly",
}

var ambiguousPattern = regexp.MustCompile(`(?i)\b(` + strings.Join(ambiguousTerms, "|") + `)\b`)

// Non-functional requirements must be measurable: a digit, a percentage,
// or an explicit time/throughput unit.
var measurablePattern = regexp.MustCompile(`(?i)([0-9]|%|\bms\b|\bmsec\b|\bseconds?\b|\bminutes?\b|\bhours?\b|\brps\b|\bqps\b|\btps\b|\breq/s\b|\bthroughput\b)`)

const (
	deductAmbiguousTerm    = 5
	deductUnmappedStory    = 15
	deductVagueNFR         = 10
	deductNoCriteria       = 20
	deductEmptyCriteriaSet = 10
)

// Lint scores a structured result. It is pure: no side effects, identical
// input always yields an identical report, so it can run at initial
// completion and again after every edit.
func Lint(result *inference.StructuredResult) Report {
	score := 100
	var issues []string

	// Rule 1: ambiguous wording in functional requirements and story benefits.
	for _, req := range result.FunctionalRequirements {
		for _, term := range ambiguousPattern.FindAllString(req.Description, -1) {
			score -= deductAmbiguousTerm
			issues = append(issues, fmt.Sprintf("functional requirement %q uses ambiguous term %q", req.Id, strings.ToLower(term)))
		}
	}
	for _, story := range result.UserStories {
		for _, term := range ambiguousPattern.FindAllString(story.Benefit, -1) {
			score -= deductAmbiguousTerm
			issues = append(issues, fmt.Sprintf("user story %q benefit uses ambiguous term %q", story.Id, strings.ToLower(term)))
		}
	}

	// Rule 2: every story must map to a declared feature.
	featureIds := make(map[string]bool, len(result.Features))
	for _, f := range result.Features {
		featureIds[f.Id] = true
	}
	for _, story := range result.UserStories {
		if story.FeatureId == "" || !featureIds[story.FeatureId] {
			score -= deductUnmappedStory
			issues = append(issues, fmt.Sprintf("user story %q has no mapped feature", story.Id))
		}
	}

	// Rule 3: non-functional requirements must be measurable.
	for _, req := range result.NonFunctionalRequirements {
		if !measurablePattern.MatchString(req.Description) {
			score -= deductVagueNFR
			issues = append(issues, fmt.Sprintf("non-functional requirement %q lacks a measurable target", req.Id))
		}
	}

	// Rule 4: stories without any acceptance criteria at all (once).
	if len(result.UserStories) > 0 && len(result.AcceptanceCriteria) == 0 {
		score -= deductNoCriteria
		issues = append(issues, "user stories are present but no acceptance criteria are defined")
	}

	// Rule 5: acceptance-criteria entries with an empty criteria list.
	for _, ac := range result.AcceptanceCriteria {
		if len(ac.Criteria) == 0 {
			score -= deductEmptyCriteriaSet
			issues = append(issues, fmt.Sprintf("acceptance criteria for story %q has an empty criteria list", ac.StoryId))
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return Report{Score: score, Issues: issues}
}
