package reuse

import (
	"context"

	"ai-specforge-be/internal/pkg/logger"
	"ai-specforge-be/internal/repository/unitofwork"
	"ai-specforge-be/pkg/embedding"

	"github.com/google/uuid"
)

// Tier classifies how similar a new request is to a prior finalized
// artifact.
type Tier string

const (
	TierExact   Tier = "EXACT"   // reuse candidate
	TierHigh    Tier = "HIGH"    // reference context
	TierPartial Tier = "PARTIAL" // background context
	TierLow     Tier = "LOW"     // log only
	TierNone    Tier = "NONE"    // below reporting floor
)

// Fixed thresholds; lower bounds are inclusive.
const (
	thresholdExact   = 0.90
	thresholdHigh    = 0.60
	thresholdPartial = 0.30
	thresholdLow     = 0.15
)

// Classify maps a cosine similarity onto a tier. Boundary values fall into
// the higher tier.
func Classify(similarity float64) Tier {
	switch {
	case similarity > thresholdExact:
		return TierExact
	case similarity >= thresholdHigh:
		return TierHigh
	case similarity >= thresholdPartial:
		return TierPartial
	case similarity >= thresholdLow:
		return TierLow
	default:
		return TierNone
	}
}

// Hint is the advisory reuse metadata attached to a job. It never gates
// submission.
type Hint struct {
	Found      bool
	Tier       Tier
	AnalysisId uuid.UUID
	Similarity float64
}

// Engine answers "have we already produced something like this?" against
// the finalized corpus.
type Engine struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	log               logger.ILogger
}

func NewEngine(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	log logger.ILogger,
) *Engine {
	return &Engine{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		log:               log,
	}
}

// FindBestMatch embeds the request text, takes the single nearest
// finalized signature and classifies it. Any failure along the way
// downgrades to "no hint", since reuse lookup must never block a submission.
func (e *Engine) FindBestMatch(ctx context.Context, text string) Hint {
	res, err := e.embeddingProvider.Generate(text, "RETRIEVAL_QUERY")
	if err != nil {
		e.log.Warn("reuse", "embedding unavailable, proceeding without hint", map[string]interface{}{
			"error": err.Error(),
		})
		return Hint{Found: false, Tier: TierNone}
	}

	uow := e.uowFactory.NewUnitOfWork(ctx)
	scored, err := uow.AnalysisRepository().SearchSimilarFinalized(ctx, res.Embedding.Values, 1)
	if err != nil {
		e.log.Warn("reuse", "similarity search failed, proceeding without hint", map[string]interface{}{
			"error": err.Error(),
		})
		return Hint{Found: false, Tier: TierNone}
	}
	if len(scored) == 0 {
		return Hint{Found: false, Tier: TierNone}
	}

	best := scored[0]
	tier := Classify(best.Similarity)
	if tier == TierNone {
		return Hint{Found: false, Tier: TierNone}
	}
	if tier == TierLow {
		// Reported to the caller but meant for logging, not generation.
		e.log.Info("reuse", "low-similarity match", map[string]interface{}{
			"analysis_id": best.Analysis.Id.String(),
			"similarity":  best.Similarity,
		})
	}

	return Hint{
		Found:      true,
		Tier:       tier,
		AnalysisId: best.Analysis.Id,
		Similarity: best.Similarity,
	}
}
