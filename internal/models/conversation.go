package models

import (
	"time"
)

type Conversation struct {
	ID           string        `json:"id" firestore:"-"`
	ProjectID    string        `json:"project_id" firestore:"project_id"`
	Messages     []ChatMessage `json:"messages" firestore:"messages"`
	MessageCount int           `json:"message_count" firestore:"message_count"`
	CreatedAt    time.Time     `json:"created_at" firestore:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" firestore:"updated_at"`
}

// HistorySnapshot is the append-only backup written after each successful
// message append. Snapshots are never read back by the application; they
// exist for recovery and audit.
type HistorySnapshot struct {
	ConversationID string        `json:"conversation_id" firestore:"conversation_id"`
	ProjectID      string        `json:"project_id" firestore:"project_id"`
	MessageCount   int           `json:"message_count" firestore:"message_count"`
	Messages       []ChatMessage `json:"messages" firestore:"messages"`
	SavedAt        time.Time     `json:"saved_at" firestore:"saved_at"`
}

// LastN returns the most recent n messages in original order. n <= 0 or
// n >= len(msgs) returns msgs unchanged.
func LastN(msgs []ChatMessage, n int) []ChatMessage {
	if n <= 0 || len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}
