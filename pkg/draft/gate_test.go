package draft

import "testing"

func validPayload() *Payload {
	return &Payload{
		Purpose:       "Track restaurant orders end to end for hungry customers",
		ProductDomain: "food delivery",
		TargetUsers:   []string{"customers", "couriers"},
		Features: []Feature{
			{Name: "Live tracking", Description: "Shows courier position on a map"},
		},
	}
}

func TestCheckStructureValidPayload(t *testing.T) {
	issues := CheckStructure(validPayload())

	if len(issues) != 0 {
		t.Errorf("issues = %v, want none", issues)
	}
	if HasCritical(issues) {
		t.Error("HasCritical = true, want false")
	}
}

func TestCheckStructure(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(*Payload)
		wantSection  string
		wantSeverity Severity
		wantCritical bool
	}{
		{
			name:         "empty purpose",
			mutate:       func(p *Payload) { p.Purpose = "" },
			wantSection:  SectionIntroduction,
			wantSeverity: SeverityCritical,
			wantCritical: true,
		},
		{
			name:         "whitespace-only purpose",
			mutate:       func(p *Payload) { p.Purpose = "   " },
			wantSection:  SectionIntroduction,
			wantSeverity: SeverityCritical,
			wantCritical: true,
		},
		{
			name:         "purpose below minimum length",
			mutate:       func(p *Payload) { p.Purpose = "track orders" },
			wantSection:  SectionIntroduction,
			wantSeverity: SeverityCritical,
			wantCritical: true,
		},
		{
			name:         "missing product domain",
			mutate:       func(p *Payload) { p.ProductDomain = "" },
			wantSection:  SectionIntroduction,
			wantSeverity: SeverityCritical,
			wantCritical: true,
		},
		{
			name:         "no features",
			mutate:       func(p *Payload) { p.Features = nil },
			wantSection:  SectionFeatures,
			wantSeverity: SeverityCritical,
			wantCritical: true,
		},
		{
			name:         "unnamed feature",
			mutate:       func(p *Payload) { p.Features[0].Name = "" },
			wantSection:  SectionFeatures,
			wantSeverity: SeverityCritical,
			wantCritical: true,
		},
		{
			name:         "short feature description is only a warning",
			mutate:       func(p *Payload) { p.Features[0].Description = "map" },
			wantSection:  SectionFeatures,
			wantSeverity: SeverityWarning,
			wantCritical: false,
		},
		{
			name:         "no target users is only a warning",
			mutate:       func(p *Payload) { p.TargetUsers = nil },
			wantSection:  SectionIntroduction,
			wantSeverity: SeverityWarning,
			wantCritical: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPayload()
			tt.mutate(p)

			issues := CheckStructure(p)

			if len(issues) == 0 {
				t.Fatal("expected at least one issue")
			}
			found := false
			for _, issue := range issues {
				if issue.Section == tt.wantSection && issue.Severity == tt.wantSeverity {
					found = true
				}
			}
			if !found {
				t.Errorf("issues = %v, want one with section %q severity %q", issues, tt.wantSection, tt.wantSeverity)
			}
			if HasCritical(issues) != tt.wantCritical {
				t.Errorf("HasCritical = %v, want %v", HasCritical(issues), tt.wantCritical)
			}
		})
	}
}

func TestHasCriticalTreatsBlockerAsCritical(t *testing.T) {
	issues := []Issue{
		{Severity: SeverityWarning, Section: SectionFeatures, Message: "drift"},
		{Severity: SeverityBlocker, Section: SectionFeatures, Message: "domain mismatch"},
	}

	if !HasCritical(issues) {
		t.Error("HasCritical = false, want true for blocker")
	}
}
