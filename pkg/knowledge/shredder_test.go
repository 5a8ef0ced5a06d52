package knowledge

import (
	"testing"

	"ai-specforge-be/internal/entity"
	"ai-specforge-be/pkg/inference"

	"github.com/google/uuid"
)

func shredInput() *inference.StructuredResult {
	return &inference.StructuredResult{
		Features: []inference.Feature{
			{Id: "F1", Name: "Live tracking", Description: "Shows courier position"},
			{Id: "F2", Name: "Order history", Description: "Lists past orders"},
		},
		NonFunctionalRequirements: []inference.Requirement{
			{Id: "NFR1", Category: "performance", Description: "p99 latency under 200 ms"},
			{Id: "NFR2", Category: "security", Description: "All traffic over TLS"},
			{Id: "NFR3", Category: "performance", Description: "Handles 1000 rps"},
		},
	}
}

func TestShredProducesFeatureAndCategoryChunks(t *testing.T) {
	sourceId := uuid.New()

	chunks := Shred(sourceId, shredInput())

	// Two features plus two NFR categories.
	if len(chunks) != 4 {
		t.Fatalf("len(chunks) = %d, want 4", len(chunks))
	}

	features, nfrs := 0, 0
	for _, c := range chunks {
		switch c.Type {
		case entity.ChunkTypeFeature:
			features++
		case entity.ChunkTypeNonFunctional:
			nfrs++
		}
		if c.Hash == "" {
			t.Errorf("chunk %q has empty hash", c.Content)
		}
		if c.SourceAnalysisId != sourceId {
			t.Errorf("chunk %q has wrong source id", c.Content)
		}
	}
	if features != 2 {
		t.Errorf("feature chunks = %d, want 2", features)
	}
	if nfrs != 2 {
		t.Errorf("non-functional chunks = %d, want 2", nfrs)
	}
}

func TestShredHashesAreStableAcrossSources(t *testing.T) {
	first := Shred(uuid.New(), shredInput())
	second := Shred(uuid.New(), shredInput())

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}

	// Identical content from different lineages must hash identically so
	// the store can deduplicate on insert.
	for i := range first {
		if first[i].Hash != second[i].Hash {
			t.Errorf("chunk %d hash differs: %s vs %s", i, first[i].Hash, second[i].Hash)
		}
		if first[i].Id == second[i].Id {
			t.Errorf("chunk %d ids collide", i)
		}
	}
}

func TestShredUncategorizedNFRsFallBackToGeneral(t *testing.T) {
	result := &inference.StructuredResult{
		NonFunctionalRequirements: []inference.Requirement{
			{Id: "NFR1", Description: "Survives a node failure"},
		},
	}

	chunks := Shred(uuid.New(), result)

	if len(chunks) != 1 {
		t.Fatalf("len(chunks) = %d, want 1", len(chunks))
	}
	found := false
	for _, tag := range chunks[0].Tags {
		if tag == "general" {
			found = true
		}
	}
	if !found {
		t.Errorf("tags = %v, want to contain \"general\"", chunks[0].Tags)
	}
}

func TestHashContentIsDeterministic(t *testing.T) {
	a := HashContent("Live tracking: Shows courier position")
	b := HashContent("Live tracking: Shows courier position")
	c := HashContent("Live tracking: shows courier position")

	if a != b {
		t.Errorf("identical content hashed differently: %s vs %s", a, b)
	}
	if a == c {
		t.Error("different content produced the same hash")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a))
	}
}
