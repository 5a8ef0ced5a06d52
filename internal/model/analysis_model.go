package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Analysis struct {
	Id       uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RootId   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_analyses_root_version,priority:1;index"`
	ParentId *uuid.UUID `gorm:"type:uuid;index"`
	Version  int        `gorm:"not null;uniqueIndex:idx_analyses_root_version,priority:2"`

	OwnerId       uuid.UUID      `gorm:"type:uuid;not null;index"`
	InputText     string         `gorm:"type:text;not null"`
	ResultJson    datatypes.JSON `gorm:"type:jsonb"`
	GeneratedCode string         `gorm:"type:text"`

	Status         string `gorm:"type:varchar(16);not null;index"`
	WorkflowStatus string `gorm:"type:varchar(16);not null"`

	IsFinalized     bool             `gorm:"not null;default:false;index"`
	VectorSignature *pgvector.Vector `gorm:"type:vector(768)"` // non-null only for finalized rows

	Metadata datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Analysis) TableName() string {
	return "analyses"
}
