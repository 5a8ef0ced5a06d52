package store

// RevisionTurn is a single message inside a revision conversation.
type RevisionTurn struct {
	Role    string `json:"role"` // "user" | "model"
	Content string `json:"content"`
}

// RevisionSession holds the recent conversation window for one lineage.
// It is a read-through cache in front of the revision_messages table, so
// losing it only costs a reload.
type RevisionSession struct {
	RootID  string         `json:"root_id"`
	OwnerID string         `json:"owner_id"`
	Turns   []RevisionTurn `json:"turns"`
}
