package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type KnowledgeChunk struct {
	Id               uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Type             string         `gorm:"type:varchar(32);not null;index"`
	Content          string         `gorm:"type:text;not null"`
	Hash             string         `gorm:"type:varchar(64);not null;uniqueIndex"`
	Tags             datatypes.JSON `gorm:"type:jsonb"`
	SourceAnalysisId uuid.UUID      `gorm:"type:uuid;not null;index"`
	CreatedAt        time.Time      `gorm:"autoCreateTime"`
}

func (KnowledgeChunk) TableName() string {
	return "knowledge_chunks"
}
