package model

import (
	"time"

	"github.com/google/uuid"
)

type RevisionMessage struct {
	Id                uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AnalysisRootId    uuid.UUID  `gorm:"type:uuid;not null;index"`
	OwnerId           uuid.UUID  `gorm:"type:uuid;not null;index"`
	Role              string     `gorm:"type:varchar(16);not null"`
	Content           string     `gorm:"type:text;not null"`
	CreatedAnalysisId *uuid.UUID `gorm:"type:uuid"`
	CreatedAt         time.Time  `gorm:"autoCreateTime"`
}

func (RevisionMessage) TableName() string {
	return "revision_messages"
}
