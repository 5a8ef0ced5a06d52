package knowledge

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"ai-specforge-be/internal/entity"
	"ai-specforge-be/pkg/inference"

	"github.com/google/uuid"
)

// Shred breaks a finalized result into reusable fragments: one chunk per
// feature and one per non-functional requirement category. Chunks carry a
// content hash so the store can deduplicate across lineages.
func Shred(sourceId uuid.UUID, result *inference.StructuredResult) []*entity.KnowledgeChunk {
	now := time.Now()
	var chunks []*entity.KnowledgeChunk

	for _, f := range result.Features {
		content := fmt.Sprintf("%s: %s", f.Name, f.Description)
		chunks = append(chunks, &entity.KnowledgeChunk{
			Id:               uuid.New(),
			Type:             entity.ChunkTypeFeature,
			Content:          content,
			Hash:             HashContent(content),
			Tags:             []string{"feature", slugify(f.Name)},
			SourceAnalysisId: sourceId,
			CreatedAt:        now,
		})
	}

	// Group NFRs by category; deterministic order keeps hashes stable.
	byCategory := make(map[string][]string)
	for _, req := range result.NonFunctionalRequirements {
		category := req.Category
		if category == "" {
			category = "general"
		}
		byCategory[category] = append(byCategory[category], req.Description)
	}
	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	for _, category := range categories {
		content := fmt.Sprintf("%s:\n%s", category, strings.Join(byCategory[category], "\n"))
		chunks = append(chunks, &entity.KnowledgeChunk{
			Id:               uuid.New(),
			Type:             entity.ChunkTypeNonFunctional,
			Content:          content,
			Hash:             HashContent(content),
			Tags:             []string{"non_functional", slugify(category)},
			SourceAnalysisId: sourceId,
			CreatedAt:        now,
		})
	}

	return chunks
}

// HashContent fingerprints chunk content for deduplication.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func slugify(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "-"))
}
