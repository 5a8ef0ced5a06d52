package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChunkType tags what kind of fragment a chunk carries.
type ChunkType string

const (
	ChunkTypeFeature        ChunkType = "feature"
	ChunkTypeNonFunctional  ChunkType = "non_functional"
)

// KnowledgeChunk is a reusable fragment extracted from a finalized
// Analysis. Chunks are insert-only and deduplicated by content hash.
type KnowledgeChunk struct {
	Id               uuid.UUID
	Type             ChunkType
	Content          string
	Hash             string // sha256 of Content
	Tags             []string
	SourceAnalysisId uuid.UUID
	CreatedAt        time.Time
}
