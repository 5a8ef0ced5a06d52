package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByRootID filters a lineage
type ByRootID struct {
	RootID uuid.UUID
}

func (s ByRootID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("root_id = ?", s.RootID)
}

// ByStatus filters by job lifecycle status
type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// FinalizedOnly restricts to rows promoted into the knowledge corpus
type FinalizedOnly struct{}

func (s FinalizedOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_finalized = TRUE")
}

// ByRevisionRootID filters revision messages by lineage
type ByRevisionRootID struct {
	RootID uuid.UUID
}

func (s ByRevisionRootID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("analysis_root_id = ?", s.RootID)
}
