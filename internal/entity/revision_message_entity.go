package entity

import (
	"time"

	"github.com/google/uuid"
)

// RevisionMessage is one side of a chat-revision exchange on a lineage.
// When a message caused a new version, CreatedAnalysisId points at it; the
// message and the version are committed in the same transaction.
type RevisionMessage struct {
	Id                uuid.UUID
	AnalysisRootId    uuid.UUID
	OwnerId           uuid.UUID
	Role              string // constant.RevisionRoleUser | constant.RevisionRoleModel
	Content           string
	CreatedAnalysisId *uuid.UUID
	CreatedAt         time.Time
}
