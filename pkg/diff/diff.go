package diff

import (
	"ai-specforge-be/pkg/inference"
)

// FieldChange is the delta of a scalar field.
type FieldChange struct {
	Changed bool   `json:"changed"`
	Old     string `json:"old,omitempty"`
	New     string `json:"new,omitempty"`
}

// ListDelta is the delta of a requirement or story list, keyed by the
// entry descriptions.
type ListDelta struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// Delta covers the fixed comparable field set: input text, the two
// requirement lists and the user stories.
type Delta struct {
	InputText                 FieldChange `json:"input_text"`
	FunctionalRequirements    ListDelta   `json:"functional_requirements"`
	NonFunctionalRequirements ListDelta   `json:"non_functional_requirements"`
	UserStories               ListDelta   `json:"user_stories"`
}

// Compare builds the structured delta between two versions. Either result
// may be nil (e.g. a version that never completed); its lists are then
// treated as empty.
func Compare(oldInput, newInput string, oldResult, newResult *inference.StructuredResult) Delta {
	return Delta{
		InputText: compareField(oldInput, newInput),
		FunctionalRequirements: compareLists(
			requirementKeys(oldResult, false),
			requirementKeys(newResult, false),
		),
		NonFunctionalRequirements: compareLists(
			requirementKeys(oldResult, true),
			requirementKeys(newResult, true),
		),
		UserStories: compareLists(storyKeys(oldResult), storyKeys(newResult)),
	}
}

func compareField(oldValue, newValue string) FieldChange {
	if oldValue == newValue {
		return FieldChange{Changed: false}
	}
	return FieldChange{Changed: true, Old: oldValue, New: newValue}
}

func requirementKeys(result *inference.StructuredResult, nonFunctional bool) []string {
	if result == nil {
		return nil
	}
	reqs := result.FunctionalRequirements
	if nonFunctional {
		reqs = result.NonFunctionalRequirements
	}
	keys := make([]string, len(reqs))
	for i, r := range reqs {
		keys[i] = r.Description
	}
	return keys
}

func storyKeys(result *inference.StructuredResult) []string {
	if result == nil {
		return nil
	}
	keys := make([]string, len(result.UserStories))
	for i, s := range result.UserStories {
		keys[i] = "As a " + s.Role + ", I want " + s.Goal + " so that " + s.Benefit
	}
	return keys
}

func compareLists(oldKeys, newKeys []string) ListDelta {
	oldSet := make(map[string]bool, len(oldKeys))
	for _, k := range oldKeys {
		oldSet[k] = true
	}
	newSet := make(map[string]bool, len(newKeys))
	for _, k := range newKeys {
		newSet[k] = true
	}

	delta := ListDelta{Added: []string{}, Removed: []string{}}
	for _, k := range newKeys {
		if !oldSet[k] {
			delta.Added = append(delta.Added, k)
		}
	}
	for _, k := range oldKeys {
		if !newSet[k] {
			delta.Removed = append(delta.Removed, k)
		}
	}
	return delta
}
