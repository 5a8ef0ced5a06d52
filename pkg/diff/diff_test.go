package diff

import (
	"testing"

	"ai-specforge-be/pkg/inference"
)

func baseResult() *inference.StructuredResult {
	return &inference.StructuredResult{
		FunctionalRequirements: []inference.Requirement{
			{Id: "FR1", Description: "Show order location"},
			{Id: "FR2", Description: "Send arrival notification"},
		},
		NonFunctionalRequirements: []inference.Requirement{
			{Id: "NFR1", Category: "performance", Description: "Updates within 500 ms"},
		},
		UserStories: []inference.UserStory{
			{Id: "US1", Role: "customer", Goal: "track my order", Benefit: "I can plan my time"},
		},
	}
}

func TestCompareIdenticalVersions(t *testing.T) {
	left := baseResult()
	right := baseResult()

	delta := Compare("same input", "same input", left, right)

	if delta.InputText.Changed {
		t.Error("InputText.Changed = true, want false")
	}
	if len(delta.FunctionalRequirements.Added)+len(delta.FunctionalRequirements.Removed) != 0 {
		t.Errorf("Functional delta = %+v, want empty", delta.FunctionalRequirements)
	}
	if len(delta.UserStories.Added)+len(delta.UserStories.Removed) != 0 {
		t.Errorf("UserStories delta = %+v, want empty", delta.UserStories)
	}
}

func TestCompareInputTextChange(t *testing.T) {
	delta := Compare("old requirements", "new requirements", baseResult(), baseResult())

	if !delta.InputText.Changed {
		t.Fatal("InputText.Changed = false, want true")
	}
	if delta.InputText.Old != "old requirements" || delta.InputText.New != "new requirements" {
		t.Errorf("InputText = %+v, want old/new preserved", delta.InputText)
	}
}

func TestCompareRequirementChanges(t *testing.T) {
	left := baseResult()
	right := baseResult()
	right.FunctionalRequirements = append(right.FunctionalRequirements,
		inference.Requirement{Id: "FR3", Description: "Allow order cancellation"})
	right.NonFunctionalRequirements = nil

	delta := Compare("input", "input", left, right)

	if len(delta.FunctionalRequirements.Added) != 1 {
		t.Errorf("Functional.Added = %v, want one entry", delta.FunctionalRequirements.Added)
	}
	if len(delta.FunctionalRequirements.Removed) != 0 {
		t.Errorf("Functional.Removed = %v, want none", delta.FunctionalRequirements.Removed)
	}
	if len(delta.NonFunctionalRequirements.Removed) != 1 {
		t.Errorf("NonFunctional.Removed = %v, want one entry", delta.NonFunctionalRequirements.Removed)
	}
}

func TestCompareUserStoryChanges(t *testing.T) {
	left := baseResult()
	right := baseResult()
	right.UserStories = []inference.UserStory{
		{Id: "US2", Role: "courier", Goal: "see the route", Benefit: "I deliver faster"},
	}

	delta := Compare("input", "input", left, right)

	if len(delta.UserStories.Added) != 1 || len(delta.UserStories.Removed) != 1 {
		t.Errorf("UserStories delta = %+v, want one added and one removed", delta.UserStories)
	}
}

func TestCompareToleratesMissingResults(t *testing.T) {
	right := baseResult()

	delta := Compare("input", "input", nil, right)

	// A nil side contributes nothing; everything on the other side counts
	// as added.
	if len(delta.FunctionalRequirements.Added) != 2 {
		t.Errorf("Functional.Added = %v, want two entries", delta.FunctionalRequirements.Added)
	}
	if len(delta.FunctionalRequirements.Removed) != 0 {
		t.Errorf("Functional.Removed = %v, want none", delta.FunctionalRequirements.Removed)
	}

	empty := Compare("input", "input", nil, nil)
	if len(empty.FunctionalRequirements.Added)+len(empty.FunctionalRequirements.Removed) != 0 {
		t.Errorf("nil/nil delta = %+v, want empty", empty.FunctionalRequirements)
	}
}
