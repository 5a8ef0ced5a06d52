package reuse

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		similarity float64
		want       Tier
	}{
		{"well above exact", 0.95, TierExact},
		{"just above exact threshold", 0.901, TierExact},
		{"exactly 0.90 falls to high", 0.90, TierHigh},
		{"middle of high band", 0.75, TierHigh},
		{"exactly 0.60 is high", 0.60, TierHigh},
		{"middle of partial band", 0.45, TierPartial},
		{"exactly 0.30 is partial", 0.30, TierPartial},
		{"middle of low band", 0.20, TierLow},
		{"exactly 0.15 is low", 0.15, TierLow},
		{"below reporting floor", 0.05, TierNone},
		{"zero", 0, TierNone},
		{"negative similarity", -0.2, TierNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.similarity)
			if got != tt.want {
				t.Errorf("Classify(%v) = %s, want %s", tt.similarity, got, tt.want)
			}
		})
	}
}

func TestClassifyIsMonotonic(t *testing.T) {
	order := map[Tier]int{
		TierNone:    0,
		TierLow:     1,
		TierPartial: 2,
		TierHigh:    3,
		TierExact:   4,
	}

	prev := TierNone
	for s := 0.0; s <= 1.0; s += 0.01 {
		got := Classify(s)
		if order[got] < order[prev] {
			t.Fatalf("tier regressed from %s to %s at similarity %v", prev, got, s)
		}
		prev = got
	}
}
